package lemma

import "time"

// Options selects and tunes the lemma backend.
type Options struct {
	// DictPath is an extra lexicon file loaded over the built-in one.
	DictPath string
	// ServiceURL selects the remote backend instead of the dictionary.
	ServiceURL string
	APIKey     string
	Timeout    time.Duration
	CacheSize  int
}

// Source names the backend o selects. Reports produced under different
// sources are not interchangeable.
func (o Options) Source() string {
	if o.ServiceURL != "" {
		return "remote:" + o.ServiceURL
	}
	if o.DictPath != "" {
		return "dictionary:" + o.DictPath
	}
	return "dictionary"
}

// Open builds the cached lemma service described by o. The returned func
// releases backend resources.
func Open(o Options) (*Cache, func(), error) {
	if o.ServiceURL != "" {
		r := NewRemote(o.ServiceURL, o.APIKey, o.Timeout)
		return NewCache(r, o.CacheSize), r.Close, nil
	}
	var paths []string
	if o.DictPath != "" {
		paths = append(paths, o.DictPath)
	}
	d, err := NewDictionary(paths...)
	if err != nil {
		return nil, nil, err
	}
	return NewCache(d, o.CacheSize), func() {}, nil
}
