package archive

import (
	"fmt"

	"github.com/go-logr/logr"
)

// resolveLinks points every link entry at the regular entry ending its chain.
// Dangling links are recorded as warnings; cycles fail.
func (c *Container) resolveLinks(log logr.Logger) error {
	for i := range c.entries {
		if !c.entries[i].IsLink() {
			continue
		}

		target, err := c.follow(i)
		if err != nil {
			return err
		}
		if target == noTarget {
			e := c.entries[i]
			c.warnings = append(c.warnings, fmt.Sprintf("dangling link %s -> %s", e.Key, e.LinkTarget))
			log.Info("dangling symlink", "key", e.Key, "target", e.LinkTarget)
			continue
		}
		c.entries[i].target = target
	}
	return nil
}

// follow walks the chain starting at link entry i. It returns noTarget when
// some link along the way points at a key that does not exist.
func (c *Container) follow(i int) (int, error) {
	visited := map[int]struct{}{i: {}}
	cur := i

	for hop := 0; hop < MaxLinkHops; hop++ {
		next, ok := c.index[c.entries[cur].LinkTarget]
		if !ok {
			return noTarget, nil
		}
		if !c.entries[next].IsLink() {
			return next, nil
		}
		if _, seen := visited[next]; seen {
			return noTarget, fmt.Errorf("%w: %s revisits %s", ErrSymlinkCycle, c.entries[i].Key, c.entries[next].Key)
		}
		visited[next] = struct{}{}
		cur = next
	}

	return noTarget, fmt.Errorf("%w: %s exceeds %d hops", ErrSymlinkCycle, c.entries[i].Key, MaxLinkHops)
}
