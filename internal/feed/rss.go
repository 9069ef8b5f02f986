// Package feed renders a channel and its episodes into a podcast RSS
// document: RSS 2.0 with the iTunes extension, plus custom channel:*/
// episode:* elements for consumers that understand them. Standard podcast
// clients ignore the extension namespace.
package feed

import (
	"fmt"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"casterd/internal/config"
	"casterd/internal/models"
)

// feedTTL is the advertised cache lifetime in minutes.
const feedTTL = 60

const (
	channelNamespace = "urn:casterd:channel"
	episodeNamespace = "urn:casterd:episode"
)

// Renderer synthesizes feeds using the configured fallback values.
type Renderer struct {
	cfg config.Config
}

func New(cfg config.Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Render produces the UTF-8 XML document for a channel. Episodes render in
// the order given; ordering correctness belongs to the updater. Output is
// deterministic for identical (channel, episodes, baseURL, now).
func (r *Renderer) Render(ch *models.Channel, episodes []models.Episode, baseURL string, now time.Time) (string, error) {
	title := ch.Title
	if title == "" {
		title = "Podcast Channel"
	}
	description := firstNonEmpty(ch.Summary, ch.Description, "Podcast RSS Feed")
	author := firstNonEmpty(ch.Author, ch.Copyright, r.cfg.DefaultAuthor)
	host := firstNonEmpty(deref(ch.Host), ch.Author, r.cfg.DefaultAuthor)
	siteURL := firstNonEmpty(ch.URL, baseURL)

	p := podcast.New(title, siteURL, description, &now, &now)
	p.AddAtomLink(fmt.Sprintf("%s/rss/%s", baseURL, ch.ID))
	p.Language = firstNonEmpty(ch.Language, r.cfg.DefaultLanguage)
	p.Copyright = firstNonEmpty(ch.Copyright, ch.Author)
	p.IAuthor = host
	p.IExplicit = "false"
	p.TTL = feedTTL
	p.AddSummary(description)
	if ch.Thumbnail != "" {
		p.AddImage(ch.Thumbnail)
	}
	// never emit an empty owner email; directories reject it
	ownerName := host
	ownerEmail := r.cfg.DefaultOwnerEmail
	if ch.Owner != nil {
		ownerName = firstNonEmpty(ch.Owner.Name, host)
		ownerEmail = firstNonEmpty(ch.Owner.Email, r.cfg.DefaultOwnerEmail)
	}
	p.IOwner = &podcast.Author{Name: ownerName, Email: ownerEmail}
	// a channel without a category emits none at all
	if ch.Category != nil && *ch.Category != "" {
		p.AddCategory(*ch.Category, nil)
	}

	itemExts := make([]string, 0, len(episodes))
	for i := range episodes {
		ep := &episodes[i]
		epTitle := ep.Title
		if epTitle == "" {
			epTitle = "Untitled Episode"
		}
		epDescription := firstNonEmpty(ep.Description, epTitle)
		// the encoder requires a link whenever an item has no enclosure,
		// and enclosure-less episodes are a normal state here
		item := podcast.Item{
			GUID:        ep.ID,
			Title:       epTitle,
			Link:        firstNonEmpty(ep.URL, siteURL),
			Description: epDescription,
		}
		pubDate := ep.PubDate(now)
		item.AddPubDate(&pubDate)
		item.IAuthor = host
		item.ISubtitle = epTitle
		item.AddSummary(epDescription)
		item.IExplicit = "false"
		if ep.Thumbnail != "" {
			item.AddImage(ep.Thumbnail)
		}
		// no enclosure until the audio asset exists; clients treat its
		// absence as "not yet downloaded"
		if ep.AudioPath != "" {
			item.AddEnclosure(ep.AudioPath, podcast.MP3, ep.AudioSize)
		}
		if ep.Duration > 0 {
			item.AddDuration(int64(ep.Duration))
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("add item %s: %w", ep.ID, err)
		}
		itemExts = append(itemExts, r.episodeExtensions(ch, ep))
	}

	doc := p.String()
	doc = declareNamespaces(doc)
	doc = spliceItemExtensions(doc, itemExts)
	doc = spliceChannelExtensions(doc, r.channelExtensions(ch, author, host))
	return doc, nil
}

// channelExtensions renders the channel-level extension elements plus the
// itunes fields the base encoder has no slot for.
func (r *Renderer) channelExtensions(ch *models.Channel, author, host string) string {
	var b strings.Builder
	writeElement(&b, "itunes:type", "episodic")
	writeElement(&b, "channel:type", firstNonEmpty(deref(ch.ContentType), ch.Type))
	writeElement(&b, "channel:category", firstNonEmpty(deref(ch.Category), r.cfg.DefaultCategory))
	writeElement(&b, "channel:publisher", firstNonEmpty(deref(ch.Publisher), author))
	writeElement(&b, "channel:host", host)
	writeElement(&b, "channel:addedAt", ch.AddedAt.UTC().Format(time.RFC3339))
	for _, tag := range ch.Tags {
		writeElement(&b, "channel:tag", tag)
	}
	return b.String()
}

func (r *Renderer) episodeExtensions(ch *models.Channel, ep *models.Episode) string {
	publishedAt := ""
	if ep.PublishedAt != nil {
		publishedAt = ep.PublishedAt.UTC().Format(time.RFC3339)
	} else if ep.UploadDate != nil {
		publishedAt = ep.UploadDate.UTC().Format(time.RFC3339)
	}
	var b strings.Builder
	// trailer/bonus types are never emitted; everything here is a full episode
	writeElement(&b, "itunes:episodeType", "full")
	writeElement(&b, "episode:id", ep.ID)
	writeElement(&b, "episode:publishedAt", publishedAt)
	writeElement(&b, "episode:type", firstNonEmpty(deref(ep.ContentType), r.cfg.DefaultCategory))
	writeElement(&b, "episode:channelName", ch.Title)
	for _, tag := range ep.Tags {
		writeElement(&b, "episode:tag", tag)
	}
	return b.String()
}

// declareNamespaces adds the extension namespace declarations next to the
// iTunes one on the <rss> element.
func declareNamespaces(doc string) string {
	decl := fmt.Sprintf(`xmlns:channel=%q xmlns:episode=%q xmlns:itunes=`, channelNamespace, episodeNamespace)
	return strings.Replace(doc, "xmlns:itunes=", decl, 1)
}

// spliceChannelExtensions inserts the channel extension block as the last
// children of <channel>.
func spliceChannelExtensions(doc, ext string) string {
	if ext == "" {
		return doc
	}
	idx := strings.LastIndex(doc, "</channel>")
	if idx < 0 {
		return doc
	}
	return doc[:idx] + ext + doc[idx:]
}

// spliceItemExtensions appends each episode's extension block inside its
// <item>. Items encode in insertion order, so the i-th closing tag belongs
// to the i-th episode.
func spliceItemExtensions(doc string, exts []string) string {
	if len(exts) == 0 {
		return doc
	}
	parts := strings.Split(doc, "</item>")
	var b strings.Builder
	for i, part := range parts {
		b.WriteString(part)
		if i < len(parts)-1 {
			if i < len(exts) {
				b.WriteString(exts[i])
			}
			b.WriteString("</item>")
		}
	}
	return b.String()
}

func writeElement(b *strings.Builder, name, value string) {
	b.WriteString("<" + name + ">")
	b.WriteString(escaper.Replace(value))
	b.WriteString("</" + name + ">")
}

var escaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
