package models

// ContactSubmission is a validated contact-form payload. It is transient:
// built from the request body, relayed to the moderation channel, and
// discarded when the request completes. It is never persisted.
type ContactSubmission struct {
	FirstName   string
	LastName    string
	Email       string
	Interest    string
	Budget      string
	Description string
}

// Name joins the optional first and last name, or returns "" when neither
// was provided.
func (c ContactSubmission) Name() string {
	switch {
	case c.FirstName != "" && c.LastName != "":
		return c.FirstName + " " + c.LastName
	case c.FirstName != "":
		return c.FirstName
	default:
		return c.LastName
	}
}
