// Package markdown renders annotation bodies to sanitized HTML.
//
// Rendering uses goldmark with the GFM extensions, followed by a bluemonday
// UGC sanitization pass. The sanitization pass is not optional: downstream
// consumers print text_rendered values without escaping them.
package markdown
