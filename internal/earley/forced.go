package earley

// forcedByte probes every possible byte value speculatively and returns the
// unique byte that is the only one accepted, if exactly one exists. This is
// the brute-force counterpart to hasForcedBytes: where that function checks
// a specific known sequence, this one discovers whether the *next* single
// byte is already determined, with no candidate sequence in hand.
//
// Accepting states are never forced: stopping is always a legal choice there,
// so even a single live continuation byte must not be force-fed past it.
func (p *Parser) forcedByte() (byte, bool) {
	if p.isAccepting() {
		return 0, false
	}

	var found byte
	count := 0
	for b := 0; b < 256; b++ {
		byt := byte(b)
		ok, err := p.RunSpeculative(func() (bool, error) {
			return p.tryPushByte(byt)
		})
		if err != nil {
			continue
		}
		if ok {
			found = byt
			count++
			if count > 1 {
				return 0, false
			}
		}
	}
	return found, count == 1
}

// forceBytes repeatedly commits forced bytes until the next byte is no
// longer uniquely determined, or pushing it fails. Every committed byte is
// pushed for real (definitive), not speculatively: this is how a caller
// fast-forwards through runs of grammar-forced text (literal keywords,
// single-branch productions) without asking the model to generate them.
func (p *Parser) forceBytes() ([]byte, error) {
	var out []byte
	for {
		b, ok := p.forcedByte()
		if !ok {
			return out, nil
		}
		pushed, err := p.tryPushByte(b)
		if err != nil {
			return out, err
		}
		if !pushed {
			// forcedByte found this byte acceptable under speculation; a
			// definitive rejection here means no further progress is safe.
			return out, nil
		}
		out = append(out, b)
	}
}
