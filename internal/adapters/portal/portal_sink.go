// Package portal implements ports.FrameSink through the xdg-desktop-portal
// Screenshot interface, which is the only way to grab the screen on most
// Wayland compositors.
package portal

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"github.com/bft-labs/gifship/internal/adapters/fs"
)

const (
	busName          = "org.freedesktop.portal.Desktop"
	objectPath       = "/org/freedesktop/portal/desktop"
	screenshotMethod = "org.freedesktop.portal.Screenshot.Screenshot"
	requestInterface = "org.freedesktop.portal.Request"
	responseMember   = "Response"
)

// ResponseStatus is the first argument of a Request.Response signal.
type ResponseStatus = uint32

const (
	Success   ResponseStatus = 0
	Cancelled ResponseStatus = 1
	Ended     ResponseStatus = 2
)

// DefaultTimeout bounds how long one capture waits for the portal.
const DefaultTimeout = 10 * time.Second

var (
	ErrUnexpectedResponse = errors.New("portal: unexpected response")
	ErrCancelled          = errors.New("portal: screenshot cancelled")
	ErrTimeout            = errors.New("portal: screenshot timed out")
)

// PortalSink requests non-interactive screenshots from the desktop portal
// and moves the resulting file to the capture destination.
//
// Requests are serialized on one session-bus connection; the portal itself
// handles one screenshot at a time.
type PortalSink struct {
	conn    *dbus.Conn
	timeout time.Duration

	mu sync.Mutex
}

// NewPortalSink connects to the session bus.
func NewPortalSink(timeout time.Duration) (*PortalSink, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("portal: session bus: %w", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &PortalSink{conn: conn, timeout: timeout}, nil
}

// Capture takes one screenshot and writes it to dest.
func (s *PortalSink) Capture(ctx context.Context, dest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := s.conn.Names()
	if len(names) == 0 {
		return fmt.Errorf("portal: connection has no unique name")
	}
	token, err := handleToken()
	if err != nil {
		return err
	}
	expected := requestPath(names[0], token)

	// Subscribe before calling so a fast response cannot be missed.
	match := []dbus.MatchOption{
		dbus.WithMatchObjectPath(expected),
		dbus.WithMatchInterface(requestInterface),
		dbus.WithMatchMember(responseMember),
	}
	if err := s.conn.AddMatchSignal(match...); err != nil {
		return fmt.Errorf("portal: add match: %w", err)
	}
	defer s.conn.RemoveMatchSignal(match...)

	signals := make(chan *dbus.Signal, 8)
	s.conn.Signal(signals)
	defer s.conn.RemoveSignal(signals)

	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token),
		"interactive":  dbus.MakeVariant(false),
	}
	var handle dbus.ObjectPath
	call := s.conn.Object(busName, objectPath).CallWithContext(ctx, screenshotMethod, 0, "", options)
	if err := call.Store(&handle); err != nil {
		return fmt.Errorf("portal: screenshot call: %w", err)
	}
	if handle != expected {
		// Portals older than version 0.9 ignore handle_token.
		extra := []dbus.MatchOption{
			dbus.WithMatchObjectPath(handle),
			dbus.WithMatchInterface(requestInterface),
			dbus.WithMatchMember(responseMember),
		}
		if err := s.conn.AddMatchSignal(extra...); err != nil {
			return fmt.Errorf("portal: add match: %w", err)
		}
		defer s.conn.RemoveMatchSignal(extra...)
	}

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return ErrTimeout
		case sig, ok := <-signals:
			if !ok {
				return ErrUnexpectedResponse
			}
			if sig.Path != handle || sig.Name != requestInterface+"."+responseMember {
				continue
			}
			uri, err := parseResponse(sig.Body)
			if err != nil {
				return err
			}
			return moveURI(uri, dest)
		}
	}
}

// parseResponse extracts the screenshot URI from a Response signal body.
func parseResponse(body []interface{}) (string, error) {
	if len(body) != 2 {
		return "", ErrUnexpectedResponse
	}
	status, ok := body[0].(uint32)
	if !ok {
		return "", fmt.Errorf("%w: status has type %T", ErrUnexpectedResponse, body[0])
	}
	switch status {
	case Success:
	case Cancelled:
		return "", ErrCancelled
	default:
		return "", fmt.Errorf("%w: status %d", ErrUnexpectedResponse, status)
	}

	results, ok := body[1].(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("%w: results have type %T", ErrUnexpectedResponse, body[1])
	}
	v, ok := results["uri"]
	if !ok {
		return "", fmt.Errorf("%w: missing uri", ErrUnexpectedResponse)
	}
	uri, ok := v.Value().(string)
	if !ok {
		return "", fmt.Errorf("%w: uri has type %T", ErrUnexpectedResponse, v.Value())
	}
	return uri, nil
}

// moveURI copies the file behind a file:// URI to dest and removes the source.
func moveURI(uri, dest string) error {
	u, err := url.Parse(uri)
	if err != nil {
		return fmt.Errorf("portal: parse uri: %w", err)
	}
	if u.Scheme != "file" {
		return fmt.Errorf("portal: unsupported uri scheme %q", u.Scheme)
	}

	src, err := os.Open(u.Path)
	if err != nil {
		return fmt.Errorf("portal: open screenshot: %w", err)
	}
	err = fs.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		_, err := io.Copy(w, src)
		return err
	})
	src.Close()
	if err != nil {
		return err
	}
	// dest now holds the frame.
	_ = os.Remove(u.Path)
	return nil
}

// requestPath predicts the Request object path for a handle token.
func requestPath(uniqueName, token string) dbus.ObjectPath {
	sender := strings.ReplaceAll(strings.TrimPrefix(uniqueName, ":"), ".", "_")
	return dbus.ObjectPath(objectPath + "/request/" + sender + "/" + token)
}

func handleToken() (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("portal: token: %w", err)
	}
	return "gifship" + hex.EncodeToString(b), nil
}
