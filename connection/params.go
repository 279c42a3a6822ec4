package connection

import (
	"fmt"
	"net/url"

	"github.com/google/go-querystring/query"
)

// StatusValid is the terminal transaction status.
const StatusValid = "valid"

// TxStatus is the body returned by the statuses endpoint.
type TxStatus struct {
	Status string `json:"status"`
}

// ListBlocksParams filters blocks. Empty fields are not sent.
type ListBlocksParams struct {
	TransactionID string `url:"transaction_id,omitempty"`
	Status        string `url:"status,omitempty"`
}

// ListOutputsParams filters outputs. Unspent is a pointer so that an
// explicit false is sent.
type ListOutputsParams struct {
	PublicKey string `url:"public_key,omitempty"`
	Unspent   *bool  `url:"unspent,omitempty"`
}

// ListTransactionsParams filters transactions. Empty fields are not sent.
type ListTransactionsParams struct {
	AssetID   string `url:"asset_id,omitempty"`
	Operation string `url:"operation,omitempty"`
}

type statusQuery struct {
	TransactionID string `url:"transaction_id"`
}

type votesQuery struct {
	BlockID string `url:"block_id"`
}

type searchQuery struct {
	Search string `url:"search"`
}

func encodeQuery(params any) (url.Values, error) {
	v, err := query.Values(params)
	if err != nil {
		return nil, fmt.Errorf("query.Values: %w", err)
	}
	if len(v) == 0 {
		return nil, nil
	}
	return v, nil
}
