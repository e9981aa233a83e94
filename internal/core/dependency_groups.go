package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
)

// DependencyGroups is the [dependency-groups] table of a project keyed
// by normalized group name.
type DependencyGroups struct {
	groups map[string]any
}

// NewDependencyGroups normalizes the group names of a raw table. Two
// names that normalize to the same value make the table ambiguous.
func NewDependencyGroups(raw map[string]any) (*DependencyGroups, error) {
	originals := map[string][]string{}
	groups := make(map[string]any, len(raw))
	for name, value := range raw {
		normalized := CanonicalizeName(name)
		originals[normalized] = append(originals[normalized], name)
		groups[normalized] = value
	}

	var duplicates []string
	for normalized, names := range originals {
		if len(names) < 2 {
			continue
		}
		sort.Strings(names)
		duplicates = append(duplicates, fmt.Sprintf("%s (%s)", normalized, strings.Join(names, ", ")))
	}
	if len(duplicates) > 0 {
		sort.Strings(duplicates)
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("Duplicate dependency group names: " + strings.Join(duplicates, ", "))
	}
	return &DependencyGroups{groups: groups}, nil
}

// Names returns the normalized group names, sorted.
func (d *DependencyGroups) Names() []string {
	names := make([]string, 0, len(d.groups))
	for name := range d.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve flattens a group, following include-group entries, into its
// requirement strings in declaration order.
func (d *DependencyGroups) Resolve(group string) ([]string, error) {
	return d.resolve(CanonicalizeName(group), nil)
}

func (d *DependencyGroups) resolve(group string, chain []string) ([]string, error) {
	for _, seen := range chain {
		if seen == group {
			return nil, errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("Cyclic dependency group include: %s -> %s", group, strings.Join(chain, " -> ")))
		}
	}
	raw, ok := d.groups[group]
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeNotFound).
			WithMsg(fmt.Sprintf("Dependency group '%s' not found", group))
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("Dependency group '%s' is not a list", group))
	}

	var realized []string
	for _, item := range items {
		switch value := item.(type) {
		case string:
			realized = append(realized, value)
		case map[string]any:
			include, err := includeGroupName(value)
			if err != nil {
				return nil, err
			}
			nested, err := d.resolve(CanonicalizeName(include), append(append([]string(nil), chain...), group))
			if err != nil {
				return nil, err
			}
			realized = append(realized, nested...)
		default:
			return nil, invalidGroupItem(item)
		}
	}
	return realized, nil
}

func includeGroupName(item map[string]any) (string, error) {
	if len(item) != 1 {
		return "", invalidGroupItem(item)
	}
	name, ok := item["include-group"].(string)
	if !ok {
		return "", invalidGroupItem(item)
	}
	return name, nil
}

func invalidGroupItem(item any) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("Invalid dependency group item: %v", item))
}
