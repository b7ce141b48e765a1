package internal

import (
	"maps"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config keys a Rule answers through Config.
const (
	ConfigDefaultReturnType = "default_return_type"
	ConfigDefaultAjaxReturn = "default_ajax_return"
	ConfigURLConvert        = "url_convert"
)

// Rule is a matched route: the pattern that matched, its dispatch target,
// its options and the variables bound from the URL.
type Rule interface {
	// DoAfter reports whether post-match processing should run.
	DoAfter() bool

	// Vars returns the variables bound by the match.
	Vars() map[string]string

	// Pattern returns the raw route pattern.
	Pattern() string

	// Route returns the dispatch target as declared on the route.
	Route() any

	// Options returns the per-route options.
	Options() RouteOptions

	// Config returns a configuration value visible to this route.
	Config(name string) string
}

// RouteOptions are the per-route options the dispatch stage acts on.
// Keys it does not recognize are kept in Extra.
type RouteOptions struct {
	// Middleware lists middleware specs ("name" or "name:arg1,arg2") to run for this route.
	Middleware []string `yaml:"middleware,omitempty" json:"middleware,omitempty"`

	// Header is applied to the outgoing response.
	Header map[string]string `yaml:"header,omitempty" json:"header,omitempty"`

	// Cache enables the request-level response cache for GET requests.
	Cache CacheOption `yaml:"cache,omitempty" json:"cache"`

	// Append adds route variables after matching.
	Append map[string]string `yaml:"append,omitempty" json:"append,omitempty"`

	// After names a legacy post-match hook.
	//
	// Deprecated: use Middleware. Setting it only logs a notice.
	After string `yaml:"after,omitempty" json:"after,omitempty"`

	Extra map[string]any `yaml:",inline" json:"extra,omitempty"`
}

// CacheOption is the route "cache" option. In config files it is either a
// scalar expiry in seconds or a [key, expire, tag] list where any element may
// be null and trailing elements may be omitted:
//
//	cache: 60
//	cache: [blog_index, 30, blog]
//	cache: [~, 30]
//
// Shapes that do not fit are tolerated: unreadable elements keep their defaults.
// The zero value means the option is not set.
type CacheOption struct {
	Key    string
	Tag    string
	Expire time.Duration
	set    bool
	keyed  bool
}

// CacheFor returns a scalar cache option: expire only, key derived from the URL.
func CacheFor(expire time.Duration) CacheOption {
	return CacheOption{Expire: expire, set: true}
}

// CacheEntry returns a list-form cache option. An empty key is derived from the URL.
func CacheEntry(key string, expire time.Duration, tag string) CacheOption {
	return CacheOption{Key: key, Expire: expire, Tag: tag, set: true, keyed: true}
}

// Enabled reports whether the option was set.
func (c CacheOption) Enabled() bool {
	return c.set
}

// IsZero lets yaml omitempty skip unset options.
func (c CacheOption) IsZero() bool {
	return !c.set
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (c *CacheOption) UnmarshalYAML(node *yaml.Node) error {
	*c = decodeCacheNode(node)
	return nil
}

// UnmarshalJSON decodes the same shapes as UnmarshalYAML. JSON is valid YAML,
// so the YAML decoder reads it.
func (c *CacheOption) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if node.Kind == yaml.DocumentNode && len(node.Content) > 0 {
		*c = decodeCacheNode(node.Content[0])
		return nil
	}
	*c = CacheOption{}
	return nil
}

// MarshalJSON writes the list form, or null when unset.
func (c CacheOption) MarshalJSON() ([]byte, error) {
	if !c.set {
		return []byte("null"), nil
	}
	if !c.keyed {
		return []byte(strconv.Itoa(int(c.Expire / time.Second))), nil
	}

	elem := func(s string) string {
		if s == "" {
			return "null"
		}
		return strconv.Quote(s)
	}
	expire := "null"
	if c.Expire != 0 {
		expire = strconv.Itoa(int(c.Expire / time.Second))
	}
	return []byte("[" + elem(c.Key) + "," + expire + "," + elem(c.Tag) + "]"), nil
}

func decodeCacheNode(node *yaml.Node) CacheOption {
	switch node.Kind {
	case yaml.ScalarNode:
		switch node.Tag {
		case "!!null":
			return CacheOption{}
		case "!!bool":
			if b, _ := strconv.ParseBool(node.Value); !b {
				return CacheOption{}
			}
			return CacheOption{set: true}
		}
		return CacheOption{Expire: parseExpire(node), set: true}

	case yaml.SequenceNode:
		c := CacheOption{set: true, keyed: true}
		items := node.Content
		if len(items) > 0 && items[0].Tag != "!!null" {
			c.Key = strings.TrimSpace(items[0].Value)
		}
		if len(items) > 1 {
			c.Expire = parseExpire(items[1])
		}
		if len(items) > 2 && items[2].Tag != "!!null" {
			c.Tag = strings.TrimSpace(items[2].Value)
		}
		return c

	case yaml.MappingNode:
		c := CacheOption{set: true, keyed: true}
		for i := 0; i+1 < len(node.Content); i += 2 {
			k, v := node.Content[i].Value, node.Content[i+1]
			switch k {
			case "key":
				c.Key = strings.TrimSpace(v.Value)
			case "expire":
				c.Expire = parseExpire(v)
			case "tag":
				c.Tag = strings.TrimSpace(v.Value)
			}
		}
		return c
	}

	return CacheOption{set: true}
}

// parseExpire reads seconds ("60") or a Go duration ("5m"). Anything else is zero,
// which means the cache's default TTL.
func parseExpire(node *yaml.Node) time.Duration {
	if node.Kind != yaml.ScalarNode || node.Tag == "!!null" {
		return 0
	}
	v := strings.TrimSpace(node.Value)
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	return 0
}

// RouteInfo is the introspectable record of the matched route, published on
// the request for logging and debugging.
type RouteInfo struct {
	Rule   string            `json:"rule"`
	Route  any               `json:"route,omitempty"`
	Option RouteOptions      `json:"option"`
	Var    map[string]string `json:"var,omitempty"`
}

// RuleSpec describes a MatchedRule.
type RuleSpec struct {
	Route     any               `json:"route,omitempty"`
	Options   RouteOptions      `json:"options"`
	Vars      map[string]string `json:"vars,omitempty"`
	Config    map[string]string `json:"config,omitempty"`
	Pattern   string            `json:"pattern"`
	SkipAfter bool              `json:"skip_after,omitempty"`
}

// MatchedRule is the Rule implementation produced by the engine.
// It is immutable: accessors return copies.
type MatchedRule struct {
	route   any
	options RouteOptions
	vars    map[string]string
	config  map[string]string
	pattern string
	doAfter bool
}

// NewRule builds an immutable rule from spec.
func NewRule(spec RuleSpec) *MatchedRule {
	return &MatchedRule{
		pattern: spec.Pattern,
		route:   spec.Route,
		options: spec.Options,
		vars:    maps.Clone(spec.Vars),
		config:  maps.Clone(spec.Config),
		doAfter: !spec.SkipAfter,
	}
}

func (r *MatchedRule) DoAfter() bool             { return r.doAfter }
func (r *MatchedRule) Pattern() string           { return r.pattern }
func (r *MatchedRule) Route() any                { return r.route }
func (r *MatchedRule) Options() RouteOptions     { return r.options }
func (r *MatchedRule) Config(name string) string { return r.config[name] }

func (r *MatchedRule) Vars() map[string]string {
	if r.vars == nil {
		return map[string]string{}
	}
	return maps.Clone(r.vars)
}

// spec returns the data needed to rebuild the rule after persistence.
func (r *MatchedRule) spec() RuleSpec {
	return RuleSpec{
		Pattern:   r.pattern,
		Route:     r.route,
		Options:   r.options,
		Vars:      r.Vars(),
		Config:    maps.Clone(r.config),
		SkipAfter: !r.doAfter,
	}
}

var _ Rule = (*MatchedRule)(nil)
