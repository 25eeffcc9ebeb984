// Package metrics names the storefront's metrics and their tags.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	obserrors "github.com/target/petalcart/internal/observability/errors"
	"github.com/target/petalcart/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
)

// EmitReplay counts one post sign-in replay outcome, tagged by status.
func EmitReplay(sink statsd.Sink, status string) {
	if sink == nil {
		return
	}
	sink.Count("cart.replay", 1, map[string]string{"status": status})
}

// EmitGuestCapture counts a deferred add-to-cart captured from an anonymous visitor.
func EmitGuestCapture(sink statsd.Sink) {
	if sink == nil {
		return
	}
	sink.Count("cart.guest_capture", 1, nil)
}

// EmitLogin counts a sign-in attempt. method is "password", "register" or "sso".
func EmitLogin(sink statsd.Sink, method string, err error) {
	if sink == nil {
		return
	}
	tags := map[string]string{"method": method, "result": ResultSuccess}
	if err != nil {
		tags["result"] = ResultError
		tags["error_class"] = obserrors.Classify(err)
	}
	sink.Count("auth.login", 1, tags)
}

// EmitRequest records one HTTP request, tagged by method and status class.
func EmitRequest(sink statsd.Sink, method string, status int, d time.Duration) {
	if sink == nil {
		return
	}
	tags := map[string]string{"method": method, "status": StatusClass(status)}
	sink.Count("http.request", 1, tags)
	sink.Timing("http.request.duration", d, tags)
}

// StatusClass maps 404 to "4xx"; values outside 100..599 become "unknown".
func StatusClass(status int) string {
	if status < http.StatusContinue || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status/100) + "xx"
}
