// Package payout validates and normalizes the account details a creator
// supplies for each withdrawal method.
package payout

import (
	"encoding/json"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/vidora/monetization/internal/models"
	"github.com/xssnick/tonutils-go/address"
)

// Crypto networks accepted for payouts.
const (
	NetworkTON      = "ton"
	NetworkEthereum = "ethereum"
	NetworkPolygon  = "polygon"
	NetworkBSC      = "bsc"
)

var evmAddress = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

type PayPalDetails struct {
	Email string `json:"email"`
}

type BankDetails struct {
	AccountHolder string  `json:"accountHolder"`
	AccountNumber string  `json:"accountNumber"`
	BankName      string  `json:"bankName"`
	RoutingNumber *string `json:"routingNumber,omitempty"`
}

type CryptoDetails struct {
	WalletAddress string `json:"walletAddress"`
	Network       string `json:"network"`
}

// IsEmpty reports whether raw carries no details at all.
func IsEmpty(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return s == "" || s == "null" || s == "{}"
}

// Validate checks raw against the shape required by method and returns the
// normalized details. Every failure wraps models.ErrInvalidInput.
func Validate(method string, raw json.RawMessage) (json.RawMessage, error) {
	if IsEmpty(raw) {
		return nil, invalid("account details are required")
	}

	var normalized any
	switch method {
	case models.PayoutMethodPayPal:
		var d PayPalDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, invalid("malformed paypal details")
		}
		addr, err := mail.ParseAddress(strings.TrimSpace(d.Email))
		if err != nil {
			return nil, invalid("paypal email is invalid")
		}
		d.Email = strings.ToLower(addr.Address)
		normalized = d

	case models.PayoutMethodBank:
		var d BankDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, invalid("malformed bank details")
		}
		d.AccountHolder = strings.TrimSpace(d.AccountHolder)
		d.AccountNumber = strings.ReplaceAll(strings.TrimSpace(d.AccountNumber), " ", "")
		d.BankName = strings.TrimSpace(d.BankName)
		if d.AccountHolder == "" || d.AccountNumber == "" || d.BankName == "" {
			return nil, invalid("accountHolder, accountNumber and bankName are required")
		}
		if d.RoutingNumber != nil {
			rn := strings.TrimSpace(*d.RoutingNumber)
			if rn == "" {
				d.RoutingNumber = nil
			} else {
				d.RoutingNumber = &rn
			}
		}
		normalized = d

	case models.PayoutMethodCrypto:
		var d CryptoDetails
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, invalid("malformed crypto details")
		}
		d.Network = strings.ToLower(strings.TrimSpace(d.Network))
		addr, err := normalizeWallet(d.Network, strings.TrimSpace(d.WalletAddress))
		if err != nil {
			return nil, err
		}
		d.WalletAddress = addr
		normalized = d

	default:
		return nil, invalid(fmt.Sprintf("unsupported payout method %q", method))
	}

	out, err := json.Marshal(normalized)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Decode turns stored details into a generic map for display. Malformed
// details decode to nil.
func Decode(raw json.RawMessage) map[string]any {
	if IsEmpty(raw) {
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil
	}
	return m
}

func normalizeWallet(network, wallet string) (string, error) {
	if wallet == "" {
		return "", invalid("walletAddress is required")
	}
	switch network {
	case NetworkTON:
		addr, err := parseTONAddress(wallet)
		if err != nil {
			return "", invalid("walletAddress is not a valid TON address")
		}
		return addr.String(), nil
	case NetworkEthereum, NetworkPolygon, NetworkBSC:
		if !evmAddress.MatchString(wallet) {
			return "", invalid("walletAddress is not a valid EVM address")
		}
		return strings.ToLower(wallet), nil
	case "":
		return "", invalid("network is required")
	default:
		return "", invalid(fmt.Sprintf("unsupported network %q", network))
	}
}

// parseTONAddress accepts both the user-friendly base64 form and the raw
// workchain:hex form.
func parseTONAddress(s string) (*address.Address, error) {
	if strings.Contains(s, ":") {
		return address.ParseRawAddr(s)
	}
	return address.ParseAddr(s)
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", models.ErrInvalidInput, msg)
}
