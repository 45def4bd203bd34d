package convert

import (
	"bufio"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/net/html/charset"

	"github.com/pbaille/tdconv/internal/domain"
	"github.com/pbaille/tdconv/internal/tabular"
)

const expansionState = "0,1"

type opmlDocument struct {
	XMLName xml.Name `xml:"opml"`
	Version string   `xml:"version,attr"`
	Head    opmlHead `xml:"head"`
	Body    opmlBody `xml:"body"`
}

type opmlHead struct {
	Title          string `xml:"title"`
	ExpansionState string `xml:"expansionState,omitempty"`
}

type opmlBody struct {
	Outlines []opmlOutline `xml:"outline"`
}

type opmlOutline struct {
	Text     string        `xml:"text,attr"`
	Note     string        `xml:"_note,attr,omitempty"`
	Outlines []opmlOutline `xml:"outline"`
}

// opmlEncoder collects records into an outline tree and serializes it on End.
type opmlEncoder struct {
	w     io.Writer
	title string
	tree  *outlineTree
}

func newOPMLEncoder(w io.Writer) *opmlEncoder {
	return &opmlEncoder{w: w, tree: newOutlineTree()}
}

func (e *opmlEncoder) Begin(title string) error {
	e.title = title
	return nil
}

func (e *opmlEncoder) OnTask(ctx context.Context, rec domain.Record) error {
	level, err := rec.Level()
	if err != nil {
		return err
	}
	return e.tree.addTask(level, rec.Content)
}

// OnNote never downloads: attachments become "name: url" text.
func (e *opmlEncoder) OnNote(ctx context.Context, note domain.Note, indent int) error {
	if note.Attachment != nil {
		if err := e.tree.appendNote(note.Attachment.Name + ": " + note.Attachment.URL); err != nil {
			return err
		}
	}
	if note.Text != "" {
		return e.tree.appendNote(note.Text)
	}
	return nil
}

func (e *opmlEncoder) End() error {
	doc := opmlDocument{
		Version: "1.0",
		Head:    opmlHead{Title: e.title, ExpansionState: expansionState},
		Body:    opmlBody{Outlines: e.tree.outlines(0)},
	}

	bw := bufio.NewWriter(e.w)
	bw.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	enc := xml.NewEncoder(bw)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode opml: %w", err)
	}
	bw.WriteString("\n")
	return bw.Flush()
}

// DecodeOPML writes the outline in r as Todoist CSV: per node a task row,
// a note row when the node has a note, and a blank separator row, then
// its children. It returns the number of rows written after the header.
func DecodeOPML(r io.Reader, w io.Writer) (int, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	var doc opmlDocument
	if err := dec.Decode(&doc); err != nil {
		return 0, fmt.Errorf("parse opml: %w", err)
	}

	tw := tabular.NewWriter(w)
	if err := tw.WriteHeader(); err != nil {
		return 0, err
	}
	n, err := writeOutlines(tw, doc.Body.Outlines, 1)
	if err != nil {
		return n, err
	}
	return n, tw.Flush()
}

func writeOutlines(tw *tabular.Writer, outlines []opmlOutline, level int) (int, error) {
	n := 0
	for _, o := range outlines {
		rows := []domain.Record{{Kind: domain.KindTask, Content: o.Text, Indent: strconv.Itoa(level)}}
		if o.Note != "" {
			rows = append(rows, domain.Record{Kind: domain.KindNote, Content: o.Note})
		}
		rows = append(rows, domain.Record{})
		for _, row := range rows {
			if err := tw.Write(row); err != nil {
				return n, err
			}
			n++
		}

		m, err := writeOutlines(tw, o.Outlines, level+1)
		n += m
		if err != nil {
			return n, err
		}
	}
	return n, nil
}
