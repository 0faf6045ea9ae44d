package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/alexalex89/task-management/domain"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

const shortIDLen = 8

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func writeStructured(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		data, err := sonic.ConfigStd.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encoding yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("unknown output format %q", format)
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func writeTasks(w io.Writer, format string, tasks []domain.Task) error {
	if format != formatTable && format != "" {
		if tasks == nil {
			tasks = []domain.Task{}
		}
		return writeStructured(w, format, tasks)
	}
	if len(tasks) == 0 {
		_, err := fmt.Fprintln(w, "No tasks")
		return err
	}
	t := newTable("ID", "TITLE", "LIST", "PRIORITY", "DUE", "DONE")
	for _, task := range tasks {
		due := ""
		if task.DueDate != nil {
			due = task.DueDate.String()
		}
		done := ""
		if task.Completed {
			done = "x"
		}
		t.Row(shortID(task.ID), task.Title, task.Category.Label(), string(task.Priority), due, done)
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func writeTask(w io.Writer, format string, task domain.Task) error {
	if format != formatTable && format != "" {
		return writeStructured(w, format, task)
	}
	due, completed := "-", "-"
	if task.DueDate != nil {
		due = task.DueDate.String()
	}
	if task.CompletedAt != nil {
		completed = task.CompletedAt.Format("2006-01-02 15:04")
	}
	priority := string(task.Priority)
	if priority == "" {
		priority = "-"
	}
	lines := [][2]string{
		{"ID", task.ID},
		{"Title", task.Title},
		{"List", task.Category.Label()},
		{"Priority", priority},
		{"Due", due},
		{"Created", task.CreatedAt.Format("2006-01-02 15:04")},
		{"Completed", completed},
		{"Order", strconv.Itoa(task.Order)},
	}
	for _, l := range lines {
		if _, err := fmt.Fprintf(w, "%-10s %s\n", l[0]+":", l[1]); err != nil {
			return err
		}
	}
	if task.Description != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", task.Description)
		return err
	}
	return nil
}

func writeStats(w io.Writer, format string, stats []domain.CategoryStats) error {
	if format != formatTable && format != "" {
		return writeStructured(w, format, stats)
	}
	t := newTable("LIST", "TOTAL", "DONE", "PENDING")
	for _, s := range stats {
		t.Row(s.Category.Label(), strconv.Itoa(s.Total), strconv.Itoa(s.Completed), strconv.Itoa(s.Pending))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
