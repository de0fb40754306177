// AngelaMos | 2026
// view.go

package state

import (
	"net/url"
	"strings"
)

// View is a navigation target. The set is closed: only this package can add
// variants, and every variant renders its own deep link.
type View interface {
	Name() string
	Path() string
	view()
}

type Home struct{}

type ProductDetail struct{ ProductID string }

type AddItem struct{}

type EditItem struct{ ProductID string }

type Profile struct{ UserID string }

type Saved struct{}

type Search struct{ Query string }

type Admin struct{}

type Reports struct{}

type Auth struct{}

type Orders struct{}

type Cart struct{}

// Chat opens the inbox, optionally on a conversation or a new thread with
// a recipient about a product.
type Chat struct {
	ConversationID string
	RecipientID    string
	ProductID      string
}

func (Home) Name() string          { return "home" }
func (ProductDetail) Name() string { return "productDetail" }
func (AddItem) Name() string       { return "addItem" }
func (EditItem) Name() string      { return "editItem" }
func (Profile) Name() string       { return "profile" }
func (Saved) Name() string         { return "saved" }
func (Search) Name() string        { return "search" }
func (Admin) Name() string         { return "admin" }
func (Reports) Name() string       { return "reports" }
func (Auth) Name() string          { return "auth" }
func (Orders) Name() string        { return "orders" }
func (Cart) Name() string          { return "cart" }
func (Chat) Name() string          { return "chat" }

func (Home) Path() string            { return "/" }
func (v ProductDetail) Path() string { return "/products/" + url.PathEscape(v.ProductID) }
func (AddItem) Path() string         { return "/sell" }
func (v EditItem) Path() string      { return "/products/" + url.PathEscape(v.ProductID) + "/edit" }
func (v Profile) Path() string       { return "/users/" + url.PathEscape(v.UserID) }
func (Saved) Path() string           { return "/saved" }
func (v Search) Path() string        { return "/search?q=" + url.QueryEscape(v.Query) }
func (Admin) Path() string           { return "/admin" }
func (Reports) Path() string         { return "/admin/reports" }
func (Auth) Path() string            { return "/auth" }
func (Orders) Path() string          { return "/orders" }
func (Cart) Path() string            { return "/cart" }

func (v Chat) Path() string {
	if v.ConversationID != "" {
		return "/chat/" + url.PathEscape(v.ConversationID)
	}

	q := url.Values{}
	if v.RecipientID != "" {
		q.Set("to", v.RecipientID)
	}
	if v.ProductID != "" {
		q.Set("product", v.ProductID)
	}
	if len(q) == 0 {
		return "/chat"
	}
	return "/chat?" + q.Encode()
}

func (Home) view()          {}
func (ProductDetail) view() {}
func (AddItem) view()       {}
func (EditItem) view()      {}
func (Profile) view()       {}
func (Saved) view()         {}
func (Search) view()        {}
func (Admin) view()         {}
func (Reports) view()       {}
func (Auth) view()          {}
func (Orders) view()        {}
func (Cart) view()          {}
func (Chat) view()          {}

// ParsePath is the inverse of Path for the links this package renders.
// Unknown paths land on Home.
func ParsePath(raw string) View {
	u, err := url.Parse(raw)
	if err != nil {
		return Home{}
	}

	segs := strings.Split(strings.Trim(u.Path, "/"), "/")
	q := u.Query()

	switch {
	case len(segs) == 1 && segs[0] == "":
		return Home{}
	case len(segs) == 2 && segs[0] == "products":
		return ProductDetail{ProductID: segs[1]}
	case len(segs) == 3 && segs[0] == "products" && segs[2] == "edit":
		return EditItem{ProductID: segs[1]}
	case len(segs) == 2 && segs[0] == "users":
		return Profile{UserID: segs[1]}
	case len(segs) == 2 && segs[0] == "admin" && segs[1] == "reports":
		return Reports{}
	case len(segs) == 2 && segs[0] == "chat":
		return Chat{ConversationID: segs[1]}
	case len(segs) == 1:
		switch segs[0] {
		case "sell":
			return AddItem{}
		case "saved":
			return Saved{}
		case "search":
			return Search{Query: q.Get("q")}
		case "admin":
			return Admin{}
		case "auth":
			return Auth{}
		case "orders":
			return Orders{}
		case "cart":
			return Cart{}
		case "chat":
			return Chat{RecipientID: q.Get("to"), ProductID: q.Get("product")}
		}
	}

	return Home{}
}
