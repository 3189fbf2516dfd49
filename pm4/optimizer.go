package pm4

// Optimizer shadows the context registers written to one command stream so
// that redundant writes can be dropped. The zero value knows no register.
type Optimizer struct {
	valid  [ContextRegCount]bool
	values [ContextRegCount]uint32
}

// NewOptimizer returns an optimizer with every register unknown.
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Reset forgets every shadowed value, e.g. after a state restore the
// optimizer did not observe.
func (o *Optimizer) Reset() {
	clear(o.valid[:])
}

// Value returns the shadowed value of reg and whether it is known.
// reg must be a context register, as for every method of Optimizer.
func (o *Optimizer) Value(reg uint32) (uint32, bool) {
	i := reg - ContextRegStart
	return o.values[i], o.valid[i]
}

// SetOneContextReg writes reg unless the shadow already holds value.
func (o *Optimizer) SetOneContextReg(space []uint32, reg, value uint32) []uint32 {
	i := reg - ContextRegStart
	if o.valid[i] && o.values[i] == value {
		return space
	}
	o.valid[i] = true
	o.values[i] = value
	return SetOneReg(space, reg, value, ShaderGraphics)
}

// SetSeqContextRegs writes consecutive registers unless every one of them
// already holds the requested value.
func (o *Optimizer) SetSeqContextRegs(space []uint32, first uint32, values []uint32) []uint32 {
	base := first - ContextRegStart
	redundant := true
	for k, v := range values {
		if !o.valid[base+uint32(k)] || o.values[base+uint32(k)] != v {
			redundant = false
			break
		}
	}
	if redundant {
		return space
	}
	for k, v := range values {
		o.valid[base+uint32(k)] = true
		o.values[base+uint32(k)] = v
	}
	return SetSeqRegs(space, first, values, ShaderGraphics)
}

// ContextRegRmw writes a read-modify-write unless the shadow proves it is a
// no-op. A register whose prior value was unknown stays unknown.
func (o *Optimizer) ContextRegRmw(space []uint32, reg, mask, data uint32) []uint32 {
	i := reg - ContextRegStart
	if o.valid[i] {
		next := o.values[i]&^mask | data&mask
		if next == o.values[i] {
			return space
		}
		o.values[i] = next
	}
	return ContextRegRmw(space, reg, mask, data)
}
