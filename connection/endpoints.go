package connection

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint is a symbolic name for one REST resource of the ledger API.
type Endpoint int

const (
	Blocks Endpoint = iota
	BlocksDetail
	Outputs
	Statuses
	Transactions
	TransactionsDetail
	Assets
	Votes
)

// Endpoints lists every known endpoint.
func Endpoints() []Endpoint {
	return []Endpoint{
		Blocks,
		BlocksDetail,
		Outputs,
		Statuses,
		Transactions,
		TransactionsDetail,
		Assets,
		Votes,
	}
}

func (e Endpoint) String() string {
	switch e {
	case Blocks:
		return "blocks"
	case BlocksDetail:
		return "blocksDetail"
	case Outputs:
		return "outputs"
	case Statuses:
		return "statuses"
	case Transactions:
		return "transactions"
	case TransactionsDetail:
		return "transactionsDetail"
	case Assets:
		return "assets"
	case Votes:
		return "votes"
	default:
		return fmt.Sprintf("Endpoint(%d)", int(e))
	}
}

// Template returns the route template, placeholders are written as {name}.
func (e Endpoint) Template() (string, error) {
	switch e {
	case Blocks:
		return "blocks", nil
	case BlocksDetail:
		return "blocks/{blockId}", nil
	case Outputs:
		return "outputs", nil
	case Statuses:
		return "statuses", nil
	case Transactions:
		return "transactions", nil
	case TransactionsDetail:
		return "transactions/{transactionId}", nil
	case Assets:
		return "assets", nil
	case Votes:
		return "votes", nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnknownEndpoint, e)
	}
}

// Resolve builds the request path for e under basePath. Placeholders and
// params must match exactly.
func Resolve(basePath string, e Endpoint, params map[string]string) (string, error) {
	tmpl, err := e.Template()
	if err != nil {
		return "", err
	}

	used := make(map[string]struct{}, len(params))
	var b strings.Builder
	b.WriteString(basePath)

	rest := tmpl
	for {
		open := strings.IndexByte(rest, '{')
		if open < 0 {
			b.WriteString(rest)
			break
		}
		closing := strings.IndexByte(rest[open:], '}')
		if closing < 0 {
			b.WriteString(rest)
			break
		}
		closing += open

		name := rest[open+1 : closing]
		value, ok := params[name]
		if !ok {
			return "", fmt.Errorf("%w: %s requires %q", ErrPathParams, e, name)
		}
		b.WriteString(rest[:open])
		b.WriteString(url.PathEscape(value))
		used[name] = struct{}{}
		rest = rest[closing+1:]
	}

	for name := range params {
		if _, ok := used[name]; !ok {
			return "", fmt.Errorf("%w: %s has no placeholder %q", ErrPathParams, e, name)
		}
	}

	return b.String(), nil
}
