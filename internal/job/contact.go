package job

// ContactKind says how the employer can be reached.
type ContactKind string

const (
	// ContactWhatsApp opens a chat through the posting's WhatsApp link.
	ContactWhatsApp ContactKind = "whatsapp"
	// ContactPhone dials the posting's phone number.
	ContactPhone ContactKind = "phone"
	// ContactNone means no usable contact information.
	ContactNone ContactKind = "none"
)

// NoContactMessage is shown when a posting has no contact information.
const NoContactMessage = "No contact information available"

// Contact is a resolved contact action.
type Contact struct {
	Kind    ContactKind `json:"kind"`
	URI     string      `json:"uri,omitempty"`
	Message string      `json:"message,omitempty"`
}

// Contact resolves the preferred way to reach the employer: the WhatsApp
// link first, then the phone number, otherwise none.
func (j Job) Contact() Contact {
	if link := j.ContactPreference.WhatsAppLink; link != "" {
		return Contact{Kind: ContactWhatsApp, URI: link}
	}
	if j.Phone != "" && j.Phone != DefaultPhone {
		return Contact{Kind: ContactPhone, URI: "tel:" + j.Phone}
	}
	return Contact{Kind: ContactNone, Message: NoContactMessage}
}
