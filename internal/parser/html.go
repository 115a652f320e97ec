package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/dgallion1/normatext/internal/document"
)

// HTMLParser handles HTML files. Block elements become paragraphs; the
// align attribute and inline text-align, font-family and font-size styles
// are carried over.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (document.Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &document.Memory{
		Title: strings.TrimSuffix(strings.TrimSuffix(filename, ".html"), ".htm"),
	}
	if title := findTitle(root); title != "" {
		doc.Title = title
	}

	var walk func(n *html.Node, inherited cssProps)
	walk = func(n *html.Node, inherited cssProps) {
		if n.Type == html.ElementNode {
			props := inherited.merge(elementProps(n))
			if level := headingLevel(n.Data); level > 0 {
				para := document.Heading(level, textContent(n))
				props.apply(para)
				doc.Append(para)
				return
			}
			switch n.Data {
			case "script", "style", "nav", "footer", "header", "head":
				return
			case "p", "td", "th", "blockquote", "pre":
				para := document.Body(textContent(n))
				props.apply(para)
				doc.Append(para)
				return
			case "ol", "ul":
				ordinal := 1
				if s, err := strconv.Atoi(attr(n, "start")); err == nil {
					ordinal = s
				}
				for c := n.FirstChild; c != nil; c = c.NextSibling {
					if c.Type != html.ElementNode || c.Data != "li" {
						continue
					}
					marker := "•"
					if n.Data == "ol" {
						marker = strconv.Itoa(ordinal) + "."
						ordinal++
					}
					para := document.Body(strings.TrimSpace(marker + " " + textContent(c)))
					props.merge(elementProps(c)).apply(para)
					doc.Append(para)
				}
				return
			}
			inherited = props
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inherited)
		}
	}

	if body := findBody(root); body != nil {
		walk(body, cssProps{})
	} else {
		walk(root, cssProps{})
	}
	return doc, nil
}

// cssProps is the subset of presentational properties the checks use.
type cssProps struct {
	align string
	font  string
	size  document.Size
}

func (c cssProps) merge(child cssProps) cssProps {
	if child.align != "" {
		c.align = child.align
	}
	if child.font != "" {
		c.font = child.font
	}
	if child.size.IsSet() {
		c.size = child.size
	}
	return c
}

func (c cssProps) apply(p *document.Para) {
	p.Align = document.ParseAlignment(c.align)
	p.Font = c.font
	p.Size = c.size
}

func elementProps(n *html.Node) cssProps {
	props := cssProps{align: attr(n, "align")}
	for _, decl := range strings.Split(attr(n, "style"), ";") {
		name, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "text-align":
			props.align = value
		case "font-family":
			first, _, _ := strings.Cut(value, ",")
			props.font = strings.Trim(strings.TrimSpace(first), `"'`)
		case "font-size":
			props.size = cssSize(value)
		}
	}
	return props
}

// cssSize parses "12pt" or "16px" (96px = 72pt). Other units are ignored.
func cssSize(v string) document.Size {
	v = strings.ToLower(strings.TrimSpace(v))
	var factor float64
	switch {
	case strings.HasSuffix(v, "pt"):
		factor = 1
	case strings.HasSuffix(v, "px"):
		factor = 0.75
	default:
		return document.Size{}
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v[:len(v)-2]), 64)
	if err != nil || f <= 0 {
		return document.Size{}
	}
	return document.Pt(f * factor)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
