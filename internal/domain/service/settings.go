package service

// Settings is the read-only slice of configuration the validation chain and
// commands need. It is built once at startup.
type Settings struct {
	Environment       string
	SpreadsheetID     string
	RegisterChannelID string
	TestChannelID     string
	AdminChannelID    string
	PrivilegedUserID  string
}

func (s Settings) IsDevelopment() bool {
	return s.Environment == "development"
}

// AdminChannel is the channel admin commands are restricted to: the admin
// channel when one is configured, otherwise the test channel, in every
// environment.
func (s Settings) AdminChannel() string {
	if s.AdminChannelID != "" {
		return s.AdminChannelID
	}
	return s.TestChannelID
}

// RegisterChannel is the channel /register is restricted to.
func (s Settings) RegisterChannel() string {
	if s.IsDevelopment() {
		return s.TestChannelID
	}
	return s.RegisterChannelID
}
