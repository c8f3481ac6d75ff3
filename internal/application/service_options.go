package application

import (
	"log/slog"
	"time"
)

// ServiceOptions carries the ambient collaborators shared by the entity services.
// Zero values fall back to uuid ids, time.Now, time.Local, no latency and slog.Default.
type ServiceOptions struct {
	IDGenerator func() string
	Now         func() time.Time
	Location    *time.Location
	Latency     *Latency
	Logger      *slog.Logger
}

func (o ServiceOptions) withDefaults() ServiceOptions {
	o.IDGenerator = defaultIDGenerator(o.IDGenerator)
	o.Now = defaultNow(o.Now)
	if o.Location == nil {
		o.Location = time.Local
	}
	o.Logger = defaultLogger(o.Logger)
	return o
}

// today returns the current calendar date in loc, formatted with DateLayout.
func today(now func() time.Time, loc *time.Location) string {
	return now().In(loc).Format(DateLayout)
}

func applyPatch[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}
