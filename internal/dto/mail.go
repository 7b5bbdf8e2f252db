package dto

// SendMailRequest is the payload for POST /send-email. CustomContent, when
// set, replaces the composed HTML body verbatim.
type SendMailRequest struct {
	ID            string `json:"id"`
	To            string `json:"to"`
	CustomContent string `json:"customContent,omitempty"`
}

// SendMailResponse is the flat success payload for POST /send-email. The
// shape is a wire contract with existing clients and deliberately bypasses
// the standard response envelope.
type SendMailResponse struct {
	OK        bool   `json:"ok"`
	MessageID string `json:"messageId"`
	Preview   string `json:"preview,omitempty"`
	HTML      string `json:"html"`
	From      string `json:"from"`
	Fallback  bool   `json:"fallback"`
	Note      string `json:"note,omitempty"`
}
