package extract

// explode flat-maps each parent into zero or more children and re-attaches the
// parent's key to every child. Parent order and child order are preserved.
func explode[P, C, R any](parents []P, children func(P) []C, build func(P, int, C) R) []R {
	var out []R
	for _, p := range parents {
		for i, c := range children(p) {
			out = append(out, build(p, i, c))
		}
	}
	return out
}

//Personal.AI order the ending
