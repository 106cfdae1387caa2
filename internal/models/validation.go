package models

import "fmt"

// ValidationIssue описывает одно исправление, сделанное при нормализации документа
type ValidationIssue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}
