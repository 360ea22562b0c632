package netutil

import (
	"errors"
	"net"
	"net/url"
	"testing"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return false }

func TestShouldRetryNil(t *testing.T) {
	if ShouldRetry(nil) {
		t.Fatal("nil error must not be retryable")
	}
}

func TestShouldRetryTimeout(t *testing.T) {
	if !ShouldRetry(timeoutErr{}) {
		t.Fatal("timeout error should be retryable")
	}
}

func TestShouldRetryDial(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
	if !ShouldRetry(opErr) {
		t.Fatal("dial error should be retryable")
	}
}

func TestShouldRetryWrappedURLError(t *testing.T) {
	urlErr := &url.Error{Op: "Get", URL: "https://example.test", Err: timeoutErr{}}
	if !ShouldRetry(urlErr) {
		t.Fatal("url.Error wrapping a timeout should be retryable")
	}
}

func TestShouldRetryPlainError(t *testing.T) {
	if ShouldRetry(errors.New("unexpected status 400")) {
		t.Fatal("plain errors must not be retryable")
	}
}
