package tui

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	list "github.com/charmbracelet/bubbles/list"
)

type definitionItem struct {
	title, desc string
	path        string
}

func (d definitionItem) Title() string       { return d.title }
func (d definitionItem) Description() string { return d.desc }
func (d definitionItem) FilterValue() string { return d.title }

// refreshDir lists the Grasshopper definitions in the working directory.
func (m *Model) refreshDir() {
	entries, err := os.ReadDir(m.cwd)
	if err != nil {
		m.status = "read dir error: " + err.Error()
		return
	}
	var items []list.Item
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext == ".gh" || ext == ".ghx" {
			items = append(items, definitionItem{title: name, desc: ext, path: filepath.Join(m.cwd, name)})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].(definitionItem).title < items[j].(definitionItem).title
	})
	m.items = items
	m.l.SetItems(items)
	if len(items) == 0 && m.showSidebar {
		m.status = "no .gh or .ghx files in " + m.cwd
	}
}
