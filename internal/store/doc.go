// Package store provides the shared in-memory key-value store held by the
// bootstrap node.
//
// A Store maps string keys to string values. It is created once at startup
// and handed to every connection handler; there is no package-level
// instance.
//
// # Basic Usage
//
//	st := store.New()
//	st.Put("alpha", "1")
//	if v, ok := st.Get("alpha"); ok {
//	    fmt.Println(v)
//	}
//
// # Thread Safety
//
// Every Put and Get runs under one mutex guarding the whole map, so no two
// mutations interleave and a reader never sees a half-applied write.
package store
