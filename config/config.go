// Package config carries the protocol settings the core is parameterised
// by: network magic, committee/validator sizing, block timing, and the
// hardfork activation table. Parsing a config file or flags into this
// struct is explicitly out of scope for the core; callers construct one
// however their deployment wants and pass it in.
package config

import (
	"fmt"

	"neonode.dev/core/types"
)

// Hardfork names a protocol upgrade gate.
type Hardfork string

// MainNet and TestNet are the two well-known Neo network magics.
const (
	MagicMainNet uint32 = 860833102
	MagicTestNet uint32 = 894710606
)

// ProtocolSettings is the enumerated configuration table from §6.
type ProtocolSettings struct {
	Network                       uint32
	AddressVersion                byte
	StandbyCommittee               []types.ECPoint
	ValidatorsCount                int
	MillisecondsPerBlock            uint32
	MaxValidUntilBlockIncrement     uint32
	MaxTransactionsPerBlock         uint32
	MemoryPoolMaxTransactions       int
	MaxTraceableBlocks              uint32
	InitialGasDistribution          int64
	Hardforks                      map[Hardfork]uint32
}

// Default returns settings modelled on Neo N3 MainNet defaults, minus the
// standby committee keys (which a real deployment must supply).
func Default() ProtocolSettings {
	return ProtocolSettings{
		Network:                   MagicMainNet,
		AddressVersion:            0x35,
		ValidatorsCount:           7,
		MillisecondsPerBlock:      15000,
		MaxValidUntilBlockIncrement: 5760,
		MaxTransactionsPerBlock:   512,
		MemoryPoolMaxTransactions: 50000,
		MaxTraceableBlocks:        2102400,
		InitialGasDistribution:    52000000_00000000,
		Hardforks:                 map[Hardfork]uint32{},
	}
}

// Validate checks internal consistency of the settings table.
func Validate(s ProtocolSettings) error {
	if s.ValidatorsCount <= 0 {
		return fmt.Errorf("config: validators_count must be > 0")
	}
	if len(s.StandbyCommittee) > 0 && s.ValidatorsCount > len(s.StandbyCommittee) {
		return fmt.Errorf("config: validators_count %d exceeds standby_committee size %d", s.ValidatorsCount, len(s.StandbyCommittee))
	}
	if s.MillisecondsPerBlock == 0 {
		return fmt.Errorf("config: milliseconds_per_block must be > 0")
	}
	if s.MaxTransactionsPerBlock == 0 {
		return fmt.Errorf("config: max_transactions_per_block must be > 0")
	}
	if s.MemoryPoolMaxTransactions <= 0 {
		return fmt.Errorf("config: memory_pool_max_transactions must be > 0")
	}
	if s.MaxTraceableBlocks == 0 {
		return fmt.Errorf("config: max_traceable_blocks must be > 0")
	}
	return nil
}

// IsHardforkEnabled reports whether hf is active at height: it must be
// present in the table and height must be at or past its activation.
func IsHardforkEnabled(s ProtocolSettings, hf Hardfork, height uint32) bool {
	activation, ok := s.Hardforks[hf]
	return ok && height >= activation
}

// ActiveValidators returns the leading ValidatorsCount entries of the
// standby committee as the active validator set. A real deployment derives
// this from the NEO-holder vote tally via the native contracts; the core
// treats it as an input once computed.
func (s ProtocolSettings) ActiveValidators() []types.Validator {
	n := s.ValidatorsCount
	if n > len(s.StandbyCommittee) {
		n = len(s.StandbyCommittee)
	}
	out := make([]types.Validator, n)
	for i := 0; i < n; i++ {
		out[i] = types.Validator{PublicKey: s.StandbyCommittee[i]}
	}
	return out
}
