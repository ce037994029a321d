package parser

// ToRPN converts infix tokens to postfix order with the shunting-yard
// algorithm. Operators are left-associative. An unmatched ")" flushes the
// operator stack and an unmatched "(" is discarded at the end.
func ToRPN(tokens []Token) []Token {
	out := make([]Token, 0, len(tokens))
	var ops []Token
	for _, tok := range tokens {
		switch tok.Kind {
		case Word:
			out = append(out, tok)
		case LParen:
			ops = append(ops, tok)
		case RParen:
			for len(ops) > 0 && ops[len(ops)-1].Kind != LParen {
				out = append(out, ops[len(ops)-1])
				ops = ops[:len(ops)-1]
			}
			if len(ops) > 0 {
				ops = ops[:len(ops)-1]
			}
		default:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Kind == LParen || top.precedence() < tok.precedence() {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		}
	}
	for i := len(ops) - 1; i >= 0; i-- {
		if ops[i].Kind != LParen {
			out = append(out, ops[i])
		}
	}
	return out
}
