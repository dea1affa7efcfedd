package model

import "time"

// PaymentChallenge is the HTTP 402 body of the x402 challenge/response
// protocol. Field names follow the wire protocol, not Go convention.
type PaymentChallenge struct {
	X402Version int            `json:"x402Version"`
	Accepts     []PaymentTerms `json:"accepts"`
}

type PaymentTerms struct {
	Scheme            string       `json:"scheme"`
	Network           string       `json:"network"`
	MaxAmountRequired string       `json:"maxAmountRequired"`
	Asset             string       `json:"asset"`
	PayTo             string       `json:"payTo"`
	Resource          string       `json:"resource"`
	Description       string       `json:"description"`
	MimeType          string       `json:"mimeType"`
	Extra             PaymentExtra `json:"extra"`
}

type PaymentExtra struct {
	Mint     string  `json:"mint"`
	Decimals int     `json:"decimals"`
	Price    float64 `json:"price"`
}

// PaymentEnvelope is the decoded X-Payment header.
type PaymentEnvelope struct {
	Payload PaymentPayload `json:"payload"`
}

type PaymentPayload struct {
	SerializedTransaction string `json:"serializedTransaction"`
}

// PaymentProof records one consumed payment. Payer and amount derive from
// the transfer instruction itself, never from caller metadata.
type PaymentProof struct {
	Payer      string    `json:"payer"`
	Asset      string    `json:"asset"`
	Amount     uint64    `json:"amount"`
	Signature  string    `json:"signature"`
	ConsumedAt time.Time `json:"consumed_at"`
}
