package call

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"
	twilio "github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

type callCreator interface {
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
}

type DialerConfig struct {
	AccountSid string
	AuthToken  string
	From       string
	// BaseURL is the public HTTP origin Twilio fetches TwiML from.
	BaseURL string
	// BaseWSURL is the public websocket origin Twilio streams media to.
	BaseWSURL string
}

// Dialer places outbound dictation calls.
type Dialer struct {
	calls     callCreator
	from      string
	baseURL   string
	baseWSURL string
}

func NewDialer(cfg DialerConfig) (*Dialer, error) {
	if cfg.AccountSid == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, errors.New("twilio account sid, auth token and from number are required")
	}
	if cfg.BaseURL == "" || cfg.BaseWSURL == "" {
		return nil, errors.New("base url and base websocket url are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSid,
		Password: cfg.AuthToken,
	})
	return newDialer(client.Api, cfg), nil
}

func newDialer(calls callCreator, cfg DialerConfig) *Dialer {
	return &Dialer{
		calls:     calls,
		from:      cfg.From,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		baseWSURL: strings.TrimRight(cfg.BaseWSURL, "/"),
	}
}

// Dial calls to and points the call at the TwiML endpoint. It returns the
// call SID.
func (d *Dialer) Dial(to string) (string, error) {
	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(d.from)
	params.SetUrl(d.baseURL + "/twiml")
	params.SetMethod("GET")

	resp, err := d.calls.CreateCall(params)
	if err != nil {
		return "", errors.Wrap(err, "create call")
	}
	if resp == nil || resp.Sid == nil {
		return "", errors.New("create call: response has no sid")
	}
	return *resp.Sid, nil
}

// TwiML instructs Twilio to stream the call audio to /stream.
func (d *Dialer) TwiML(callSid string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
  <Say>Start speaking.</Say>
  <Connect>
    <Stream url="%s/stream?CallSid=%s"/>
  </Connect>
</Response>`, d.baseWSURL, url.QueryEscape(callSid))
}
