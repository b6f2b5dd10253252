package soap

import (
	"fmt"
	"os"
	"time"

	"github.com/camcima/camcima-soap-client/transport"
	"golang.org/x/time/rate"
	"gopkg.in/yaml.v3"
)

// Config is the file form of a client configuration.
type Config struct {
	Endpoint    string        `yaml:"endpoint"`
	Namespace   string        `yaml:"namespace"`
	UserAgent   string        `yaml:"userAgent"`
	ContentType string        `yaml:"contentType"`
	Timeout     time.Duration `yaml:"timeout"`
	Login       string        `yaml:"login"`
	Password    string        `yaml:"password"`
	Proxy       *ProxyConfig  `yaml:"proxy"`
	UnixSocket  string        `yaml:"unixSocket"`
	Insecure    bool          `yaml:"insecure"`
	RateLimit   float64       `yaml:"rateLimit"`
	Burst       int           `yaml:"burst"`

	LowerCaseFirst     bool  `yaml:"lowerCaseFirst"`
	KeepNullProperties *bool `yaml:"keepNullProperties"`

	Debug        bool   `yaml:"debug"`
	DebugLogFile string `yaml:"debugLogFile"`

	// ClassMaps holds named class maps, for example one per
	// operation.
	ClassMaps map[string]ClassMap `yaml:"classMaps"`
}

// ProxyConfig is the file form of [transport.Proxy].
type ProxyConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

// LoadConfig reads a YAML Config from the file at path.
func LoadConfig(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	ret, err := ParseConfig(bs)
	if err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return ret, nil
}

// ParseConfig parses a YAML Config.
func ParseConfig(bs []byte) (*Config, error) {
	var ret Config
	if err := yaml.Unmarshal(bs, &ret); err != nil {
		return nil, err
	}
	if ret.RateLimit < 0 {
		return nil, paramErr("rateLimit", "must not be negative, got %v", ret.RateLimit)
	}
	return &ret, nil
}

// ClassMap returns the named class map, or an error if the config
// doesn't define it.
func (c *Config) ClassMap(name string) (ClassMap, error) {
	cm, ok := c.ClassMaps[name]
	if !ok {
		return nil, paramErr("classMap", "no class map named %q", name)
	}
	return cm, nil
}

// ClientOptions returns the [NewClient] options described by c.
func (c *Config) ClientOptions() ClientOptions {
	mapping := DefaultMappingConfig()
	mapping.LowerCaseFirst = c.LowerCaseFirst
	if c.KeepNullProperties != nil {
		mapping.KeepNullProperties = *c.KeepNullProperties
	}
	ret := ClientOptions{
		Endpoint:  c.Endpoint,
		Namespace: c.Namespace,
		Transport: transport.Options{
			UserAgent:          c.UserAgent,
			ContentType:        c.ContentType,
			Timeout:            c.Timeout,
			Login:              c.Login,
			Password:           c.Password,
			UnixSocket:         c.UnixSocket,
			InsecureSkipVerify: c.Insecure,
			RateLimit:          rate.Limit(c.RateLimit),
			Burst:              c.Burst,
		},
		Mapping:      &mapping,
		Debug:        c.Debug,
		DebugLogFile: c.DebugLogFile,
	}
	if p := c.Proxy; p != nil {
		ret.Transport.Proxy = &transport.Proxy{
			Host:     p.Host,
			Port:     p.Port,
			User:     p.User,
			Password: p.Password,
		}
	}
	return ret
}
