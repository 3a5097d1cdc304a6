// Package archive detects and decodes release archives into a flat, ordered
// set of logical entries.
//
// Two container formats are understood: zip and gzip-compressed tar. The
// format is decided once from the stream's magic number (see Detect), and each
// format has its own decoder. While entries are collected, any entry whose key
// ends in ".tar" is treated as a nested archive and replaced by its own
// entries; nesting is bounded by a fixed depth.
//
// Symbolic links are never followed on disk. A link entry records the key of
// its target, and after decoding every link is resolved by key lookup into the
// flat entry list. Chains are followed a bounded number of hops; a chain that
// does not end in a regular entry is a cycle and fails the whole Open.
// Dangling links are tolerated and reported through Container.Warnings.
//
// # Usage
//
//	f, err := os.Open("release.tgz")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	c, err := archive.Open(f, archive.WithLogger(log))
//	if err != nil {
//	    return err
//	}
//	for i, e := range c.Entries() {
//	    data := c.Data(i)
//	    ...
//	}
package archive
