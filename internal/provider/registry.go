package provider

import (
	"time"

	"github.com/unclebandit/outreach-pipeline/internal/config"
	"github.com/unclebandit/outreach-pipeline/internal/model"
)

// Registry is the provider configuration resolved once at startup. It is
// read-only afterwards and shared by discovery and dispatch.
type Registry struct {
	search  []SearchProvider
	senders map[model.Channel]Sender
}

// NewRegistry builds every client from cfg. Search providers keep their fixed
// priority order: Serper, then Brave, then DuckDuckGo.
func NewRegistry(cfg config.ProviderConfig, timeout time.Duration) *Registry {
	return NewRegistryWith(
		[]SearchProvider{
			NewSerperClient(cfg.SerperAPIKey, timeout),
			NewBraveClient(cfg.BraveAPIKey, timeout),
			NewDuckDuckGoClient(cfg.DuckDuckGoEnabled, timeout),
		},
		map[model.Channel]Sender{
			model.ChannelSMS:      NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, timeout),
			model.ChannelWhatsApp: NewWhatsAppClient(cfg.WhatsAppToken, cfg.WhatsAppPhoneNumberID, timeout),
			model.ChannelEmail:    NewSendGridClient(cfg.SendGridAPIKey, cfg.SendGridFromEmail, cfg.SendGridFromName, timeout),
		},
	)
}

func NewRegistryWith(search []SearchProvider, senders map[model.Channel]Sender) *Registry {
	s := make(map[model.Channel]Sender, len(senders))
	for ch, sender := range senders {
		s[ch] = sender
	}
	return &Registry{search: append([]SearchProvider(nil), search...), senders: s}
}

// SearchProviders returns the configured search providers in priority order.
func (r *Registry) SearchProviders() []SearchProvider {
	out := make([]SearchProvider, 0, len(r.search))
	for _, p := range r.search {
		if p.Configured() {
			out = append(out, p)
		}
	}
	return out
}

// Sender returns the configured sender for ch.
func (r *Registry) Sender(ch model.Channel) (Sender, bool) {
	s, found := r.senders[ch]
	if !found || !s.Configured() {
		return nil, false
	}
	return s, true
}

// Summary reports which providers are usable, for startup logging.
func (r *Registry) Summary() map[string]bool {
	out := make(map[string]bool, len(r.search)+len(r.senders))
	for _, p := range r.search {
		out[string(p.Name())] = p.Configured()
	}
	for ch, s := range r.senders {
		out[string(ch)+"/"+string(s.Name())] = s.Configured()
	}
	return out
}
