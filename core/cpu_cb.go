package core

// executeCB decodes and executes a CB-prefixed opcode algorithmically:
// bits 7-6 select the family (00=rotate/shift/swap, 01=BIT, 10=RES,
// 11=SET), bits 5-3 select the sub-operation or bit index, and bits 2-0
// select the operand register using the same B,C,D,E,H,L,(HL),A mapping
// as the main table.
func (c *CPU) executeCB(opcode byte) int {
	family := opcode >> 6
	mid := (opcode >> 3) & 7
	reg := opcode & 7

	switch family {
	case 0: // rotate/shift/swap
		v := c.getReg8(reg)
		var result byte
		switch mid {
		case 0:
			result = c.rlc(v)
		case 1:
			result = c.rrc(v)
		case 2:
			result = c.rl(v)
		case 3:
			result = c.rr(v)
		case 4:
			result = c.sla(v)
		case 5:
			result = c.sra(v)
		case 6:
			result = c.swap(v)
		default:
			result = c.srl(v)
		}
		c.setReg8(reg, result)
		if reg == 6 {
			return 16
		}
		return 8

	case 1: // BIT
		c.bit(uint(mid), c.getReg8(reg))
		if reg == 6 {
			return 12
		}
		return 8

	case 2: // RES
		c.setReg8(reg, SetBit(c.getReg8(reg), uint(mid), false))
		if reg == 6 {
			return 16
		}
		return 8

	default: // SET
		c.setReg8(reg, SetBit(c.getReg8(reg), uint(mid), true))
		if reg == 6 {
			return 16
		}
		return 8
	}
}
