package controller

import (
	"context"
	"net/http"
	"time"

	"github.com/alimikegami/quicart/internal/domain"
	"github.com/alimikegami/quicart/internal/middleware"
	"github.com/alimikegami/quicart/internal/service"
	"github.com/alimikegami/quicart/pkg/response"
	"github.com/alimikegami/quicart/pkg/snapshot"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamController pushes full snapshots over websockets whenever the
// underlying documents change.
type StreamController struct {
	catalog   service.CatalogService
	cart      service.CartService
	favorites service.FavoritesService
	profile   service.ProfileService
}

func CreateStreamController(e *echo.Group, catalog service.CatalogService, cart service.CartService, favorites service.FavoritesService, profile service.ProfileService, isLoggedIn echo.MiddlewareFunc) {
	c := StreamController{
		catalog:   catalog,
		cart:      cart,
		favorites: favorites,
		profile:   profile,
	}

	e.GET("/ws/products/:category/:uid", c.WatchProduct)
	e.GET("/ws/cart", c.WatchCart, isLoggedIn)
	e.GET("/ws/favorites", c.WatchFavorites, isLoggedIn)
	e.GET("/ws/profile", c.WatchProfile, isLoggedIn)
	e.GET("/ws/profile/orders", c.WatchOrderHistory, isLoggedIn)
}

func (c *StreamController) WatchProduct(e echo.Context) error {
	return stream(e, func(ctx context.Context) (*snapshot.Subscription[domain.Product], error) {
		return c.catalog.WatchProduct(ctx, e.Param("category"), e.Param("uid"))
	})
}

func (c *StreamController) WatchCart(e echo.Context) error {
	userID := middleware.ExtractClaims(e).UserID
	return stream(e, func(ctx context.Context) (*snapshot.Subscription[domain.CartView], error) {
		return c.cart.WatchCart(ctx, userID)
	})
}

func (c *StreamController) WatchFavorites(e echo.Context) error {
	userID := middleware.ExtractClaims(e).UserID
	return stream(e, func(ctx context.Context) (*snapshot.Subscription[[]domain.Favorite], error) {
		return c.favorites.Watch(ctx, userID)
	})
}

func (c *StreamController) WatchProfile(e echo.Context) error {
	userID := middleware.ExtractClaims(e).UserID
	return stream(e, func(ctx context.Context) (*snapshot.Subscription[domain.UserProfile], error) {
		return c.profile.Watch(ctx, userID)
	})
}

func (c *StreamController) WatchOrderHistory(e echo.Context) error {
	userID := middleware.ExtractClaims(e).UserID
	return stream(e, func(ctx context.Context) (*snapshot.Subscription[[]domain.OrderRecord], error) {
		return c.profile.WatchOrderHistory(ctx, userID)
	})
}

// stream subscribes before upgrading so that a failed subscription is
// answered with a regular error response.
func stream[T any](e echo.Context, subscribe func(ctx context.Context) (*snapshot.Subscription[T], error)) error {
	ctx, cancel := context.WithCancel(e.Request().Context())
	defer cancel()

	sub, err := subscribe(ctx)
	if err != nil {
		return response.WriteErrorResponse(e, err, nil)
	}
	defer sub.Close()

	conn, err := upgrader.Upgrade(e.Response(), e.Request(), nil)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "stream").Msg("")
		return nil
	}
	defer conn.Close()

	peerGone := make(chan struct{})
	go readUntilClosed(conn, peerGone)

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-peerGone:
			return nil
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		case v, ok := <-sub.Updates():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				reason := "subscription ended"
				if err := sub.Err(); err != nil {
					log.Ctx(ctx).Error().Err(err).Str("component", "stream").Msg("")
					reason = err.Error()
				}
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, reason))
				return nil
			}

			err := conn.WriteJSON(response.SuccessResponse{Status: "success", Data: v})
			if err != nil {
				log.Ctx(ctx).Info().Err(err).Str("component", "stream").Msg("peer unreachable")
				return nil
			}
		}
	}
}

// readUntilClosed drains control frames and closes done once the peer hangs up.
func readUntilClosed(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
