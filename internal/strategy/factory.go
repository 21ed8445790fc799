package strategy

import "fmt"

const NameGap = "gap"

func NewEngine(name string) (Engine, error) {
	switch name {
	case NameGap, "":
		return NewGap(), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q", name)
	}
}
