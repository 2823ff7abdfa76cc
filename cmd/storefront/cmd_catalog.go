package main

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"storefront/internal/domain"
)

// productArg берёт id из аргумента или из товара текущей страницы
func productArg(args []string, page domain.PageContext) (int64, error) {
	if len(args) == 0 {
		if page.Product == nil {
			return 0, errors.New("product id is required (or pass --page with a product)")
		}
		return page.Product.ID, nil
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.Errorf("invalid product id %q", args[0])
	}
	return id, nil
}

// parseCartItem разбирает "id" или "id:price"
func parseCartItem(arg string, page domain.PageContext) (domain.CartItem, error) {
	idPart, pricePart, hasPrice := strings.Cut(arg, ":")
	id, err := strconv.ParseInt(idPart, 10, 64)
	if err != nil || id <= 0 {
		return domain.CartItem{}, errors.Errorf("invalid cart item %q", arg)
	}
	item := domain.CartItem{ProductID: id}
	switch {
	case hasPrice:
		if item.Price, err = decimal.NewFromString(pricePart); err != nil {
			return domain.CartItem{}, errors.Wrapf(err, "invalid price in %q", arg)
		}
	case page.Product != nil && page.Product.ID == id:
		item.Price = page.Product.Price
	}
	return item, nil
}

var cartCmd = &cobra.Command{
	Use:   "cart",
	Short: "Manage the shopping cart",
}

var cartAddCmd = &cobra.Command{
	Use:   "add [product-id]",
	Short: "Add a product to the cart",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := productArg(args, current.page)
		if err != nil {
			return err
		}
		return outcome(current.catalog.AddToCart(cmd.Context(), id))
	},
}

var cartRemoveCmd = &cobra.Command{
	Use:   "remove <product-id>",
	Short: "Remove a product from the cart",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := productArg(args, current.page)
		if err != nil {
			return err
		}
		return outcome(current.catalog.RemoveFromCart(cmd.Context(), id))
	},
}

var cartClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove everything from the cart",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return outcome(current.catalog.ClearCart(cmd.Context()))
	},
}

var cartCheckoutCmd = &cobra.Command{
	Use:   "checkout <id[:price]>...",
	Short: "Check out selected cart items",
	Long: `Free items go straight to the library; if anything is paid the payment
page is opened after a short delay.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		items := make([]domain.CartItem, 0, len(args))
		for _, arg := range args {
			it, err := parseCartItem(arg, current.page)
			if err != nil {
				return err
			}
			items = append(items, it)
		}
		res := current.catalog.Checkout(cmd.Context(), items)
		if res.OK() && len(res.FreeProducts) > 0 {
			cmd.Printf("Бесплатно получено: %s\n", strings.Join(res.FreeProducts, ", "))
		}
		return outcome(res)
	},
}

var getCmd = &cobra.Command{
	Use:   "get [product-id]",
	Short: "Get a free product and open its download page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := productArg(args, current.page)
		if err != nil {
			return err
		}
		return outcome(current.catalog.GetProduct(cmd.Context(), id))
	},
}

var buyCmd = &cobra.Command{
	Use:   "buy [product-id]",
	Short: "Buy a product and open the payment page",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := productArg(args, current.page)
		if err != nil {
			return err
		}
		return outcome(current.catalog.BuyProduct(cmd.Context(), id))
	},
}

func init() {
	cartCmd.AddCommand(cartAddCmd, cartRemoveCmd, cartClearCmd, cartCheckoutCmd)
}
