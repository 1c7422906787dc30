package provider

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/SEP490-eMotoRent/payment-reconciler/internal/errors"
	"github.com/SEP490-eMotoRent/payment-reconciler/internal/types"
)

// Parser normalizes one provider's redirect URL into a CanonicalCallback.
// Implementations are pure: the same raw URL always yields the same callback,
// and no well-formed-but-unexpected input ever panics.
type Parser interface {
	Provider() types.Provider
	Parse(rawURL string) (*types.CanonicalCallback, error)
}

// Registry holds one parser per supported provider.
type Registry struct {
	parsers map[types.Provider]Parser
}

func NewRegistry(parsers ...Parser) *Registry {
	r := &Registry{parsers: make(map[types.Provider]Parser, len(parsers))}
	for _, p := range parsers {
		r.parsers[p.Provider()] = p
	}
	return r
}

func (r *Registry) Get(p types.Provider) (Parser, error) {
	parser, ok := r.parsers[p]
	if !ok {
		return nil, errors.New(errors.CodeUnknownProvider,
			fmt.Sprintf("no parser registered for provider %q", p), nil)
	}
	return parser, nil
}

// Detect picks a parser by sniffing the callback's parameter namespace. Used
// on cold-start paths where only the raw URL is known.
func (r *Registry) Detect(rawURL string) (Parser, error) {
	query, err := callbackQuery(rawURL)
	if err != nil {
		return nil, err
	}

	for name := range query {
		switch {
		case strings.HasPrefix(name, "vnp_"):
			return r.Get(types.ProviderVNPay)
		case strings.HasPrefix(name, "vpc_"):
			return r.Get(types.ProviderOnePay)
		}
	}

	return nil, errors.New(errors.CodeUnknownProvider,
		"callback parameters match no known provider", nil)
}

// callbackQuery extracts query parameters from a raw redirect URL. Tolerant
// of parameter order and extraneous parameters; fails only on URLs that
// cannot be parsed at all or carry no parameters.
func callbackQuery(rawURL string) (url.Values, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, errors.New(errors.CodeMalformedURL,
			"callback URL is not parsable", err)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return nil, errors.New(errors.CodeMalformedURL,
			"callback query string is not parsable", err)
	}

	if len(query) == 0 {
		return nil, errors.New(errors.CodeMalformedURL,
			"callback URL carries no parameters", nil)
	}

	return query, nil
}

func missingField(provider types.Provider, field string) error {
	return errors.New(errors.CodeMissingField,
		fmt.Sprintf("%s callback is missing %q", provider, field), nil)
}

// rawFields copies every parameter into the canonical callback untouched so
// the backend confirmation call sees exactly what the provider sent.
func rawFields(query url.Values) map[string]string {
	fields := make(map[string]string, len(query))
	for name := range query {
		fields[name] = query.Get(name)
	}
	return fields
}
