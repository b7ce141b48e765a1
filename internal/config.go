package internal

import "strconv"

// Config holds engine-wide settings that rules expose through Rule.Config.
type Config struct {
	// DefaultReturnType encodes data returned by strategies on regular requests.
	DefaultReturnType string `yaml:"default_return_type"`

	// DefaultAjaxReturn encodes data returned by strategies on AJAX requests.
	DefaultAjaxReturn string `yaml:"default_ajax_return"`

	// URLConvert case-folds controller names and parameter keys.
	URLConvert bool `yaml:"url_convert"`
}

// DefaultConfig returns html for regular requests, json for AJAX and
// case conversion on.
func DefaultConfig() Config {
	return Config{
		DefaultReturnType: TypeHTML,
		DefaultAjaxReturn: TypeJSON,
		URLConvert:        true,
	}
}

// values renders the config as the string map rules carry.
func (c Config) values() map[string]string {
	return map[string]string{
		ConfigDefaultReturnType: c.DefaultReturnType,
		ConfigDefaultAjaxReturn: c.DefaultAjaxReturn,
		ConfigURLConvert:        strconv.FormatBool(c.URLConvert),
	}
}
