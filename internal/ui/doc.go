// Package ui provides semantic text formatting for sqlconn output.
//
// # Semantic Formatters
//
//	ui.Code.Sprint("sqlconn test --all")   // Commands and SQL
//	ui.Path.Sprint("Data/connections.json") // File paths
//	ui.Success.Sprint("✓")                  // Success indicators
//	ui.Error.Sprint("✗")                    // Error indicators
//	ui.Warning.Sprint("⚠")                  // Warnings
//	ui.Info.Sprint("→")                     // Hints
//	ui.Highlight.Sprint("Local")            // Profile names and user values
//	ui.Secret.Sprint("Abc123!")             // Revealed passwords
//	ui.Muted.Sprint("never tested")         // De-emphasized text
//
// Colors are disabled when NO_COLOR is set or the terminal lacks color
// support; formatters then fall back to text decorations.
package ui
