package soap

import (
	"errors"
	"testing"
	"time"
)

// Parent and Child are the request fixtures of the serializer tests.
type Parent struct {
	Name          string   `soap:"name"`
	Children      []*Child `soap:"children"`
	EldestChild   *Child   `soap:"eldestChild"`
	NullAttribute *string  `soap:"nullAttribute"`
}

type Child struct {
	Name string `soap:"name"`
	Age  int    `soap:"age"`
}

// GetCityForecastByZIP is a weather service request.
type GetCityForecastByZIP struct {
	ZIP string
}

// GetCityForecastByZIPResult and friends are a weather service
// response.
type GetCityForecastByZIPResult struct {
	Success            bool
	ResponseText       string
	State              string
	City               string
	WeatherStationCity string
	ForecastResult     *ForecastResult

	successCalls int
}

// SetSuccess records its calls, so tests can tell setter assignment
// from field assignment.
func (r *GetCityForecastByZIPResult) SetSuccess(ok bool) {
	r.successCalls++
	r.Success = ok
}

type ForecastResult struct {
	Forecast []*ForecastEntry
}

type ForecastEntry struct {
	Date                      time.Time
	WeatherID                 int
	Desciption                string
	Temperatures              *Temperatures
	ProbabilityOfPrecipiation *ProbabilityOfPrecipiation
}

func (e *ForecastEntry) SetDate(d time.Time) {
	e.Date = d
}

type Temperatures struct {
	MorningLow  string
	DaytimeHigh string
}

type ProbabilityOfPrecipiation struct {
	Nighttime string
	Daytime   string
}

// Icons holds the unwrapped content of an ARRAY element.
type Icons struct {
	Out []string
}

// TwoArgSetter has a setter that can't be used.
type TwoArgSetter struct {
	Value string
}

func (s *TwoArgSetter) SetValue(a, b string) {
	s.Value = a + b
}

// DatePtrSetter takes its date by pointer.
type DatePtrSetter struct {
	When *time.Time
}

func (s *DatePtrSetter) SetWhen(t *time.Time) {
	s.When = t
}

var errNegative = errors.New("negative code")

// Checked has a setter that validates its input.
type Checked struct {
	Code int
}

func (c *Checked) SetCode(n int) error {
	if n < 0 {
		return errNegative
	}
	c.Code = n
	return nil
}

// Tagged exercises struct tags and embedding.
type Tagged struct {
	Base
	Renamed string `soap:"other"`
	Skipped string `soap:"-"`
	private string
}

type Base struct {
	ID int
}

// Dated takes its date by value.
type Dated struct {
	When time.Time
}

func (d *Dated) SetWhen(t time.Time) {
	d.When = t
}

// Audited gets its Note setter from an embedded pointer.
type Audited struct {
	*Stamp
	Name string
}

type Stamp struct {
	Note string
}

func (s *Stamp) SetNote(v string) {
	s.Note = "note: " + v
}

// Sealed embeds a pointer to an unexported type.
type Sealed struct {
	*sealedBase
	Name string
}

type sealedBase struct {
	Secret string
}

func (b *sealedBase) SetMark(v string) {}

// List is a self-referential struct.
type List struct {
	Value string
	Next  *List
}

// weatherRegistry returns a registry holding the weather fixtures
// under the "weather" namespace.
func weatherRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	for name, proto := range map[string]any{
		"weather.GetCityForecastByZIPResult": GetCityForecastByZIPResult{},
		"weather.ForecastResult":             ForecastResult{},
		"weather.ForecastEntry":              ForecastEntry{},
		"weather.Temperatures":               Temperatures{},
		"weather.ProbabilityOfPrecipiation":  ProbabilityOfPrecipiation{},
		"weather.Icons":                      Icons{},
		"test.TwoArgSetter":                  TwoArgSetter{},
		"test.DatePtrSetter":                 DatePtrSetter{},
		"test.Checked":                       Checked{},
		"test.Tagged":                        Tagged{},
		"test.Dated":                         Dated{},
		"test.Audited":                       Audited{},
		"test.Sealed":                        Sealed{},
	} {
		if err := reg.Register(name, proto); err != nil {
			t.Fatalf("registering %s: %v", name, err)
		}
	}
	return reg
}

func ptr[T any](v T) *T { return &v }
