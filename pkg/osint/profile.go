package osint

import (
	"net/url"
	"strings"
)

const (
	maxProfileImages = 5
	maxKnownTitles   = 10
	maxKnownOrgs     = 10
)

type socialDomain struct {
	Domain   string
	Platform string
}

// SocialDomains maps link hosts to platform names, checked in order.
var SocialDomains = []socialDomain{
	{"linkedin.com", "LinkedIn"},
	{"twitter.com", "Twitter/X"},
	{"x.com", "Twitter/X"},
	{"facebook.com", "Facebook"},
	{"github.com", "GitHub"},
	{"instagram.com", "Instagram"},
}

// imageFields are the page-metadata locations of a representative image.
var imageFields = []struct{ kind, field string }{
	{"cse_image", "src"},
	{"metatags", "og:image"},
	{"metatags", "twitter:image"},
}

// ExtractProfile mines profile images, social links, job titles and employers
// from the page metadata of the filtered results.
func ExtractProfile(results []FilteredResult) ProfileInfo {
	info := ProfileInfo{
		ProfileImages:      []ProfileImage{},
		SocialProfiles:     []SocialProfile{},
		KnownTitles:        []string{},
		KnownOrganizations: []string{},
	}

	seenImages := map[string]bool{}
	seenSocial := map[string]bool{}
	var titles, orgs []string

	for _, r := range results {
		displayTitle := r.PageMap.String("metatags", "og:title")
		if displayTitle == "" {
			displayTitle = r.Title
		}

		if img := imageURL(r.PageMap); img != "" && !seenImages[img] {
			seenImages[img] = true
			info.ProfileImages = append(info.ProfileImages, ProfileImage{URL: img, Title: displayTitle, Source: r.Source})
		}

		for _, rec := range r.PageMap["person"] {
			titles = appendNonEmpty(titles, fieldString(rec, "jobtitle"), fieldString(rec, "role"))
			orgs = appendNonEmpty(orgs, fieldString(rec, "worksfor"), fieldString(rec, "org"))
		}
		for _, rec := range r.PageMap["hcard"] {
			titles = appendNonEmpty(titles, fieldString(rec, "title"))
			orgs = appendNonEmpty(orgs, fieldString(rec, "org"))
		}

		if platform, ok := SocialPlatform(r.Link); ok && !seenSocial[r.Link] {
			seenSocial[r.Link] = true
			info.SocialProfiles = append(info.SocialProfiles, SocialProfile{Platform: platform, URL: r.Link, Title: displayTitle})
		}
	}

	if len(info.ProfileImages) > maxProfileImages {
		info.ProfileImages = info.ProfileImages[:maxProfileImages]
	}
	info.KnownTitles = uniqueCapped(titles, maxKnownTitles)
	info.KnownOrganizations = uniqueCapped(orgs, maxKnownOrgs)
	return info
}

// SocialPlatform classifies a link by its host against SocialDomains.
func SocialPlatform(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil || u.Host == "" {
		return "", false
	}
	host := strings.ToLower(u.Hostname())
	for _, d := range SocialDomains {
		if host == d.Domain || strings.HasSuffix(host, "."+d.Domain) {
			return d.Platform, true
		}
	}
	return "", false
}

func imageURL(p PageMap) string {
	for _, f := range imageFields {
		src := p.String(f.kind, f.field)
		if src == "" || isSVG(src) {
			continue
		}
		return src
	}
	return ""
}

func isSVG(src string) bool {
	path := strings.ToLower(src)
	if u, err := url.Parse(src); err == nil && u.Path != "" {
		path = strings.ToLower(u.Path)
	}
	return strings.HasSuffix(path, ".svg")
}

func appendNonEmpty(dst []string, values ...string) []string {
	for _, v := range values {
		if v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

func uniqueCapped(values []string, limit int) []string {
	out := make([]string, 0, min(len(values), limit))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
		if len(out) == limit {
			break
		}
	}
	return out
}
