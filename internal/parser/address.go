package parser

import (
	"log/slog"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/zostay/go-addr/pkg/addr"

	"github.com/shineum/eml2md/internal/email"
)

// parseAddresses reads an address list header. The strict RFC 5322 parser
// runs first, then go-addr, and finally a lenient split that never fails.
func parseAddresses(h mail.Header, key string) []email.Address {
	raw := strings.TrimSpace(h.Get(key))
	if raw == "" {
		return nil
	}

	if list, err := h.AddressList(key); err == nil {
		out := make([]email.Address, 0, len(list))
		for _, a := range list {
			out = append(out, email.Address{Name: a.Name, Address: a.Address})
		}
		return out
	}

	decoded := headerText(h.Header, key)

	if list, err := addr.ParseEmailAddressList(decoded); err == nil {
		out := make([]email.Address, 0, len(list))
		for _, a := range list {
			if a.Address() == "" {
				continue
			}
			out = append(out, email.Address{Name: a.DisplayName(), Address: a.Address()})
		}
		if len(out) > 0 {
			return out
		}
	}

	slog.Debug("address header is not RFC 5322, splitting leniently", "header", key, "value", raw)
	return splitAddresses(decoded)
}

// splitAddresses splits on commas and treats the last word of each entry as
// the address and everything before it as the display name.
func splitAddresses(v string) []email.Address {
	var out []email.Address
	for _, entry := range strings.Split(v, ",") {
		fields := strings.Fields(entry)
		if len(fields) == 0 {
			continue
		}

		address := strings.Trim(fields[len(fields)-1], "<>")
		name := strings.Trim(strings.Join(fields[:len(fields)-1], " "), `"' `)
		if address == "" {
			continue
		}
		out = append(out, email.Address{Name: name, Address: address})
	}
	return out
}
