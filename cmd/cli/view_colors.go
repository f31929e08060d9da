package main

import "github.com/charmbracelet/lipgloss"

var colorSuccess = lipgloss.Color("#00B785")
var colorFailure = lipgloss.Color("#E1244C")

var styleUp = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
var styleDown = lipgloss.NewStyle().Foreground(colorFailure).Bold(true)
var styleDisabled = lipgloss.NewStyle().Foreground(lipgloss.Color("#e08dff")).Bold(true)
var styleHighlight = lipgloss.NewStyle().Foreground(lipgloss.Color("#407FF8")).Bold(true)
var styleNotSet = lipgloss.NewStyle().Foreground(lipgloss.Color("#5D689C"))
var styleHeader = lipgloss.NewStyle().Bold(true).Underline(true)

var styleListItem = lipgloss.NewStyle().Padding(0, 2)
var styleInfoBox = lipgloss.NewStyle().
	Padding(0, 1).
	Margin(1, 0).
	BorderStyle(lipgloss.RoundedBorder()).
	Width(80)
