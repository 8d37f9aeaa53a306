package model

import "encoding/xml"

// ErrorPhrase is spoken to the callee when the answer callback fails.
const ErrorPhrase = "Error playing message. Please try again later."

// CallControl is the Plivo XML document returned from the answer callback.
type CallControl struct {
	XMLName xml.Name `xml:"Response"`
	Play    string   `xml:"Play,omitempty"`
	Speak   string   `xml:"Speak,omitempty"`
}

func PlayDocument(audioURL string) *CallControl {
	return &CallControl{Play: audioURL}
}

func SpeakDocument(text string) *CallControl {
	return &CallControl{Speak: text}
}

// Marshal renders the document with the XML declaration.
func (c *CallControl) Marshal() ([]byte, error) {
	b, err := xml.Marshal(c)
	if err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), b...), nil
}
