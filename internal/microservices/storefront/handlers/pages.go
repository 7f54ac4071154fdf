package handlers

import (
	"net/http"
	"strings"

	"coffee-storefront/internal/common/metrics"
	"coffee-storefront/internal/domain"
	"coffee-storefront/internal/microservices/session"
)

// visitorState is a copy of the session data the views need.
type visitorState struct {
	cart      cartView
	favorites map[int]bool
	inCart    map[int]int
}

func (h *Handler) visitor(s *session.Session) visitorState {
	st := visitorState{favorites: map[int]bool{}, inCart: map[int]int{}}
	if s == nil {
		return st
	}
	s.Do(func(s *session.Session) {
		st.cart = cartView{Lines: s.Cart.Lines(), Total: s.Cart.Total(), Count: s.Cart.ItemCount()}
		for id := range s.Favorites {
			st.favorites[id] = true
		}
		for _, l := range st.cart.Lines {
			st.inCart[l.Item.ID] = l.Quantity
		}
	})
	return st
}

func (st visitorState) item(it domain.CatalogItem) itemView {
	return itemView{CatalogItem: it, Favorite: st.favorites[it.ID], InCart: st.inCart[it.ID]}
}

func (st visitorState) items(list []domain.CatalogItem) []itemView {
	out := make([]itemView, 0, len(list))
	for _, it := range list {
		out = append(out, st.item(it))
	}
	return out
}

// leave cancels a payment in flight when the visitor navigates away from it.
func (h *Handler) leave(s *session.Session) {
	if s == nil {
		return
	}
	s.Do(func(s *session.Session) {
		if s.CancelPayment() {
			h.metrics.Checkouts.WithLabelValues(metrics.CheckoutCancelled).Inc()
		}
	})
}

func (h *Handler) categoryTabs(active string) []categoryTab {
	cats := h.catalog.Categories()
	tabs := make([]categoryTab, 0, len(cats))
	for _, c := range cats {
		tabs = append(tabs, categoryTab{Name: c, URL: menuURL(c, ""), Active: c == active})
	}
	return tabs
}

func (h *Handler) errorPage(w http.ResponseWriter, r *http.Request, code int, message string) {
	s, _ := h.currentSession(r)
	h.render(w, code, "error", errorView{
		layout:  layout{Title: http.StatusText(code), Path: r.URL.Path, CartCount: h.visitor(s).cart.Count},
		Message: message,
	})
}

func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	s, _ := h.currentSession(r)
	h.render(w, http.StatusOK, "landing", landingView{
		layout: layout{Title: "Selamat datang", Path: r.URL.Path, CartCount: h.visitor(s).cart.Count},
	})
}

func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	s, _ := h.currentSession(r)
	h.leave(s)
	st := h.visitor(s)

	var favs []domain.CatalogItem
	for _, it := range h.catalog.Items() {
		if st.favorites[it.ID] {
			favs = append(favs, it)
		}
	}
	h.render(w, http.StatusOK, "home", homeView{
		layout:     layout{Title: "Home", Path: r.URL.Path, CartCount: st.cart.Count},
		Featured:   st.items(h.catalog.Featured()),
		Favorites:  st.items(favs),
		Categories: h.categoryTabs(""),
	})
}

func (h *Handler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		h.errorPage(w, r, http.StatusNotFound, "Menu tidak ditemukan")
		return
	}
	if _, err := h.catalog.Get(id); err != nil {
		h.errorPage(w, r, http.StatusNotFound, "Menu tidak ditemukan")
		return
	}
	s := h.ensureSession(w, r)
	var fav bool
	s.Do(func(s *session.Session) { fav = s.ToggleFavorite(id) })
	h.log.Debug("favorite_toggled", map[string]any{"session_id": s.ID, "item_id": id, "favorite": fav})
	redirect(w, r, "/home")
}

func (h *Handler) Menu(w http.ResponseWriter, r *http.Request) {
	s, _ := h.currentSession(r)
	h.leave(s)
	st := h.visitor(s)

	category := r.URL.Query().Get("category")
	if !h.catalog.HasCategory(category) {
		category = h.catalog.DefaultCategory()
	}
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	h.render(w, http.StatusOK, "menu", menuView{
		layout:     layout{Title: "Menu", Path: r.URL.Path, CartCount: st.cart.Count},
		Categories: h.categoryTabs(category),
		Category:   category,
		Query:      query,
		Items:      st.items(h.catalog.Filter(category, query)),
		Cart:       st.cart,
	})
}

func (h *Handler) ItemDetail(w http.ResponseWriter, r *http.Request) {
	id, _ := pathID(r)
	it, err := h.catalog.Get(id)
	if err != nil {
		h.errorPage(w, r, http.StatusNotFound, "Menu tidak ditemukan")
		return
	}
	s, _ := h.currentSession(r)
	st := h.visitor(s)
	h.render(w, http.StatusOK, "item", itemDetailView{
		layout: layout{Title: it.Name, Path: r.URL.Path, CartCount: st.cart.Count},
		Item:   st.item(it),
	})
}
