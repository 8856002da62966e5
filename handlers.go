package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/pradeepkasula/online-shopping-cart/api"
	"github.com/pradeepkasula/online-shopping-cart/validator"
)

func (fe *frontendServer) homeHandler(w http.ResponseWriter, r *http.Request) {
	fe.productsHandler(w, r)
}

func (fe *frontendServer) productsHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	products, err := fe.client.GetProducts(r.Context())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve products"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"products":  products,
		"cart_size": fe.cartStore.Count(),
		"logged_in": fe.sessions.IsAuthenticated(),
	})
}

func (fe *frontendServer) productHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		renderAPIError(log, w, api.ValidationError("invalid product id"))
		return
	}
	log.WithField("id", id).Debug("serving product")

	p, err := fe.client.GetProduct(r.Context(), id)
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve product"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"product":   p,
		"available": p.Stock > 0,
	})
}

func (fe *frontendServer) viewCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view user cart")
	if err := fe.cartStore.Fetch(r.Context()); err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve cart"))
		return
	}
	writeCartState(w, fe)
}

func (fe *frontendServer) addToCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	productID, _ := strconv.ParseInt(r.FormValue("product_id"), 10, 64)
	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	payload := validator.AddToCartPayload{
		ProductID: productID,
		Quantity:  quantity,
	}
	if err := payload.Validate(); err != nil {
		renderAPIError(log, w, validator.ValidationErrorResponse(err))
		return
	}
	log.WithField("product", payload.ProductID).WithField("quantity", payload.Quantity).Debug("adding to cart")

	if err := fe.cartStore.Add(r.Context(), payload.ProductID, payload.Quantity); err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to add to cart"))
		return
	}
	writeCartState(w, fe)
}

func (fe *frontendServer) updateCartItemHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	itemID, _ := strconv.ParseInt(r.FormValue("item_id"), 10, 64)
	quantity, _ := strconv.Atoi(r.FormValue("quantity"))
	payload := validator.UpdateQuantityPayload{
		ItemID:   itemID,
		Quantity: quantity,
	}
	if err := payload.Validate(); err != nil {
		renderAPIError(log, w, validator.ValidationErrorResponse(err))
		return
	}
	log.WithField("item_id", payload.ItemID).WithField("quantity", payload.Quantity).Debug("updating cart item quantity")

	if err := fe.cartStore.Update(r.Context(), payload.ItemID, payload.Quantity); err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to update cart item"))
		return
	}
	writeCartState(w, fe)
}

func (fe *frontendServer) removeCartItemHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	itemID, err := strconv.ParseInt(r.FormValue("item_id"), 10, 64)
	if err != nil {
		renderAPIError(log, w, api.ValidationError("invalid item_id"))
		return
	}
	log.WithField("item_id", itemID).Debug("removing cart item")

	if err := fe.cartStore.Remove(r.Context(), itemID); err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to remove cart item"))
		return
	}
	writeCartState(w, fe)
}

func (fe *frontendServer) emptyCartHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("emptying cart")

	if err := fe.cartStore.Clear(r.Context()); err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to empty cart"))
		return
	}
	writeCartState(w, fe)
}

// placeOrderHandler creates an order from the mirrored cart, then empties the
// cart, the way the checkout screen does.
func (fe *frontendServer) placeOrderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("placing order")

	items := fe.cartStore.Cart().Items
	orderItems := make([]api.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = api.OrderItem{ProductID: item.ProductID, Quantity: item.Quantity}
	}

	order, err := fe.client.CreateOrder(r.Context(), fe.sessions.UserID(), orderItems)
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "failed to complete the order"))
		return
	}
	log.WithField("order", order.ID).Info("order placed")

	if err := fe.cartStore.Clear(r.Context()); err != nil {
		log.WithField("error", err).Warn("failed to clear cart after order")
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"order":     order,
		"cart_size": fe.cartStore.Count(),
	})
}

func (fe *frontendServer) orderHistoryHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	log.Debug("view order history")

	orders, err := fe.client.GetOrders(r.Context(), fe.sessions.UserID())
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve order history"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"orders": orders})
}

func (fe *frontendServer) orderHandler(w http.ResponseWriter, r *http.Request) {
	log := r.Context().Value(ctxKeyLog{}).(logrus.FieldLogger)
	orderID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		renderAPIError(log, w, api.ValidationError("invalid order id"))
		return
	}

	order, err := fe.client.GetOrder(r.Context(), orderID)
	if err != nil {
		renderAPIError(log, w, errors.Wrap(err, "could not retrieve order"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"order": order})
}

func writeCartState(w http.ResponseWriter, fe *frontendServer) {
	c := fe.cartStore.Cart()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"items":       c.Items,
		"total_price": c.TotalPrice,
		"cart_size":   fe.cartStore.Count(),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// renderAPIError maps the transport client's error taxonomy onto response
// codes. Wrapped errors keep their classification.
func renderAPIError(log logrus.FieldLogger, w http.ResponseWriter, err error) {
	log.WithField("error", err).Error("request error")

	status := http.StatusInternalServerError
	switch api.KindOf(errors.Cause(err)) {
	case api.KindValidation:
		status = http.StatusUnprocessableEntity
	case api.KindUnauthorized:
		status = http.StatusUnauthorized
	case api.KindChangeRequired:
		status = http.StatusForbidden
	case api.KindNotFound:
		status = http.StatusNotFound
	case api.KindNetwork:
		status = http.StatusBadGateway
	}

	writeJSON(w, status, map[string]interface{}{
		"error":  err.Error(),
		"status": status,
	})
}
