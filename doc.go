// Package routeforge is the dispatch stage of a route-table driven HTTP server.
//
// A route table maps method and pattern to a target and a strategy kind.
// Once the router has matched a request, the dispatch stage applies the
// route's options (middleware, headers, response cache, extra variables),
// runs the strategy and coerces whatever it produced into a response.
//
// # Quick Start
//
//	routes, err := routeforge.LoadRoutes("routes.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	engine := routeforge.NewEngine(
//	    routeforge.WithLogger("web", middlewares.RequestIDExtractor(), middlewares.RouteExtractor()),
//	    routeforge.WithMiddlewareSet(middlewares.Defaults(log)),
//	    routeforge.WithControllers(routeforge.Controllers{"blog": blog.Actions(repo)}),
//	    routeforge.WithViews(view.NewMarkdown(os.DirFS("views"))),
//	    routeforge.WithRoutes(routes...),
//	)
//
//	if err := engine.Run(":8080"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Route table
//
//	routes:
//	  - pattern: /blog/{id}
//	    kind: controller
//	    target: blog@show
//	    options:
//	      middleware: [request_id, "timeout:2s"]
//	      header: {Cache-Control: public}
//	      cache: ["post_:id", 300, blog]
//	  - pattern: /old-blog/{id}
//	    kind: redirect
//	    target: /blog/:id
//	  - pattern: /about
//	    kind: view
//	    target: about
//
// Callback routes take a Go function and are declared in code with
// [CallbackRoute].
//
// # Actions
//
// Controller actions receive the [Dispatch] and return a [*Response], data
// encoded with the configured return type, or nil after writing to the output
// sink:
//
//	func show(ctx context.Context, d *routeforge.Dispatch) (any, error) {
//	    post, err := repo.Post(ctx, routeforge.Var[int64](d.Request(), "id"))
//	    if err != nil {
//	        return nil, routeforge.ErrNotFound("post not found")
//	    }
//	    return post, nil
//	}
//
// # Caching
//
// A GET route with a cache option registers a [CacheDescriptor]; with
// [WithResponseCache] the engine answers later requests from the stored
// response. [WithRouteCache] persists each dispatch as a [Snapshot] so
// repeated requests skip route matching.
//
// # Errors
//
// Errors from actions and middleware reach the [ErrorHandler]. [StatusCode]
// maps them to HTTP status codes.
package routeforge
