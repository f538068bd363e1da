package message

import (
	"fmt"
	"net"
	"strings"
)

// Address is a "PublicKey@host" endpoint string. Wallets and gateways use an
// ip:port host; light clients carry only the ip of the gateway they are
// attached to.
type Address string

// NewAddress joins a public key and host into an Address.
func NewAddress(publicKey, host string) Address {
	return Address(publicKey + "@" + host)
}

func (a Address) split() (string, string, bool) {
	i := strings.LastIndex(string(a), "@")
	if i <= 0 || i == len(a)-1 {
		return "", "", false
	}
	return string(a[:i]), string(a[i+1:]), true
}

// PublicKey returns the key part of the address.
func (a Address) PublicKey() string {
	pk, _, _ := a.split()
	return pk
}

// Host returns the part after the "@", which is the NodeID for wallet and
// gateway addresses.
func (a Address) Host() string {
	_, host, _ := a.split()
	return host
}

// IP returns the host without a port.
func (a Address) IP() string {
	host := a.Host()
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}

// IsLightClient is true for addresses without a port.
func (a Address) IsLightClient() bool {
	host := a.Host()
	if host == "" {
		return false
	}
	_, _, err := net.SplitHostPort(host)
	return err != nil
}

// IsZero is true for the empty address.
func (a Address) IsZero() bool {
	return a == ""
}

// Validate checks that both the key and host parts are present.
func (a Address) Validate() error {
	if _, _, ok := a.split(); !ok {
		return fmt.Errorf("malformed address %q, expected PublicKey@host", string(a))
	}
	return nil
}

func (a Address) String() string {
	return string(a)
}
