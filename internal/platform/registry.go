package platform

import "fmt"

// New constructs the adapter for a platform name.
func New(name string, verbose bool) (Adapter, error) {
	switch name {
	case NameWeibo:
		return NewWeiboAdapter(WithWeiboVerbose(verbose)), nil
	case NameBilibili:
		return NewBilibiliAdapter(WithBilibiliVerbose(verbose)), nil
	case NameZhihu:
		return NewZhihuAdapter(WithZhihuVerbose(verbose)), nil
	default:
		return nil, fmt.Errorf("unknown platform %q (known: %v)", name, KnownNames())
	}
}

// ForNames constructs adapters for a list of platform names, preserving order.
func ForNames(names []string, verbose bool) ([]Adapter, error) {
	adapters := make([]Adapter, 0, len(names))
	for _, name := range names {
		adapter, err := New(name, verbose)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}
	return adapters, nil
}
