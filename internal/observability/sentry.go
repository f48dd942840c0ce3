package observability

import (
	"time"

	"github.com/getsentry/sentry-go"
)

func InitSentry(dsn, environment string) error {
	if dsn == "" {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      environment,
		AttachStacktrace: true,
		BeforeSend:       scrubCredentials,
	})
}

// scrubCredentials keeps bearer tokens and cookies out of reported events.
func scrubCredentials(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
	if event.Request != nil {
		for name := range event.Request.Headers {
			switch name {
			case "Authorization", "Cookie":
				event.Request.Headers[name] = "[redacted]"
			}
		}
		event.Request.Cookies = ""
		event.Request.Data = ""
	}
	return event
}

func FlushSentry() {
	sentry.Flush(2 * time.Second)
}
