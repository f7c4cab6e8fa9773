package config

// dispenser walks a token stream with a notion of block structure,
// adapted from caddyconfig/caddyfile/Dispenser but trimmed to what
// this grammar needs: no imports, no per-token file names.
type dispenser struct {
	tokens []token
	cursor int
}

func newDispenser(tokens []token) *dispenser {
	return &dispenser{tokens: tokens, cursor: -1}
}

// next loads the next token unconditionally.
func (d *dispenser) next() bool {
	if d.cursor < len(d.tokens)-1 {
		d.cursor++
		return true
	}
	return false
}

// nextArg loads the next token only if it's on the same source line
// as the current one (so directive arguments don't spill across
// lines) and isn't a block delimiter.
func (d *dispenser) nextArg() bool {
	if d.cursor < 0 || d.cursor >= len(d.tokens)-1 {
		return false
	}
	if d.tokens[d.cursor+1].line != d.tokens[d.cursor].line {
		return false
	}
	if d.tokens[d.cursor+1].text == "{" || d.tokens[d.cursor+1].text == "}" {
		return false
	}
	d.cursor++
	return true
}

func (d *dispenser) val() string {
	if d.cursor < 0 || d.cursor >= len(d.tokens) {
		return ""
	}
	return d.tokens[d.cursor].text
}

func (d *dispenser) line() int {
	if d.cursor < 0 || d.cursor >= len(d.tokens) {
		return 0
	}
	return d.tokens[d.cursor].line
}

// nextBlock consumes the next token and returns true if it is "{";
// otherwise (including at EOF) it consumes nothing and returns false
// (no block).
func (d *dispenser) nextBlock() bool {
	if d.cursor < 0 || d.cursor >= len(d.tokens)-1 {
		return false
	}
	if d.tokens[d.cursor+1].text != "{" {
		return false
	}
	d.cursor++ // consume "{"
	return true
}

// atBlockEnd reports whether the current token is a closing "}".
func (d *dispenser) atBlockEnd() bool {
	return d.cursor < len(d.tokens) && d.tokens[d.cursor].text == "}"
}
