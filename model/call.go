package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// DefaultCustomerName is used when the CRM does not send a name.
const DefaultCustomerName = "Customer"

// CallRequest is the body the CRM posts to start a call.
type CallRequest struct {
	Phone    string `json:"phone"`
	Name     string `json:"name"`
	AudioURL string `json:"audio_url"`
}

// Normalize trims the input and fills in the defaults for the optional fields.
func (req *CallRequest) Normalize(defaultAudioURL string) {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Name = strings.TrimSpace(req.Name)
	req.AudioURL = strings.TrimSpace(req.AudioURL)

	if req.Name == "" {
		req.Name = DefaultCustomerName
	}

	if req.AudioURL == "" {
		req.AudioURL = defaultAudioURL
	}
}

// Validate returns the first problem with req, phone first.
func (req *CallRequest) Validate() error {
	if err := validation.Validate(req.Phone, validation.Required.Error("Phone number is required")); err != nil {
		return err
	}

	return validation.Validate(req.AudioURL, is.RequestURL.Error("Audio URL must be a valid URL"))
}

// Call is an outbound call accepted by the provider.
type Call struct {
	ID       string `json:"call_id"`
	Phone    string `json:"phone"`
	Name     string `json:"-"`
	AudioURL string `json:"audio_url_used"`
}
