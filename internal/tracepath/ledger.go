// SPDX-FileCopyrightText: 2025 Deutsche Telekom IT GmbH
//
// SPDX-License-Identifier: Apache-2.0

package tracepath

import "time"

// ledgerSize is the number of history slots. Slot i is probed on
// destination port basePort+i.
const ledgerSize = 64

// ledgerEntry records one probe in flight. A zero hops value marks an empty slot.
type ledgerEntry struct {
	hops int
	sent time.Time
}

// ledger is a fixed ring of in-flight probes indexed by destination port offset.
type ledger struct {
	slots  [ledgerSize]ledgerEntry
	cursor int
}

// record stores a probe in the slot under the cursor, replacing any older occupant.
func (l *ledger) record(hops int, sent time.Time) {
	l.slots[l.cursor] = ledgerEntry{hops: hops, sent: sent}
}

// clear empties the slot under the cursor.
func (l *ledger) clear() {
	l.slots[l.cursor] = ledgerEntry{}
}

// advance moves the cursor to the next slot.
func (l *ledger) advance() {
	l.cursor = (l.cursor + 1) % ledgerSize
}

// port returns the destination port for the slot under the cursor.
func (l *ledger) port(basePort int) int {
	return (basePort + l.cursor) & 0xffff
}

// slotOf maps a probe's destination port back to its slot.
func (l *ledger) slotOf(basePort, port int) (int, bool) {
	slot := (port - basePort) & 0xffff
	return slot, slot < ledgerSize
}

// take returns and empties an occupied slot.
func (l *ledger) take(slot int) (ledgerEntry, bool) {
	if slot < 0 || slot >= ledgerSize {
		return ledgerEntry{}, false
	}
	e := l.slots[slot]
	if e.hops == 0 {
		return ledgerEntry{}, false
	}
	l.slots[slot] = ledgerEntry{}
	return e, true
}
