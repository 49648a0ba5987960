package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"return-insight/pkg/classifier"
	"return-insight/pkg/encoding"
	"return-insight/pkg/predictor"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
)

func predictCmd() *cobra.Command {
	in := predictor.DefaultInput()
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the return probability of one order",
		Example: `  returns predict --product Laptop --category Computers --price 1200 \
    --payment "Credit Card" --delivery-days 3 --rating 2 --municipality Abobo`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			model, err := classifier.Load(appCfg.ModelPath)
			if err != nil {
				return err
			}
			svc := predictor.NewService(model, appLogger, nil)

			res, err := svc.Predict(cmd.Context(), in)
			if err != nil {
				var mismatch *predictor.SchemaMismatchError
				if errors.As(err, &mismatch) {
					printMismatch(cmd.ErrOrStderr(), mismatch)
				}
				return err
			}
			printResult(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Product, "product", in.Product, "product ("+strings.Join(encoding.Products.Labels(), ", ")+")")
	f.StringVar(&in.Category, "category", in.Category, "category ("+strings.Join(encoding.Categories.Labels(), ", ")+")")
	f.Float64Var(&in.Price, "price", in.Price, "unit price")
	f.IntVar(&in.Quantity, "quantity", in.Quantity, "quantity")
	f.StringVar(&in.PaymentMethod, "payment", in.PaymentMethod, "payment method ("+strings.Join(encoding.PaymentMethods.Labels(), ", ")+")")
	f.IntVar(&in.DeliveryDays, "delivery-days", in.DeliveryDays, "delivery days")
	f.IntVar(&in.SatisfactionRating, "rating", in.SatisfactionRating, "satisfaction rating (1-5)")
	f.StringVar(&in.Municipality, "municipality", in.Municipality, "municipality ("+strings.Join(encoding.Municipalities.Labels(), ", ")+")")
	return cmd
}

func printResult(w io.Writer, res predictor.Result) {
	fmt.Fprintln(w, headerStyle.Render("Prediction Result"))
	fmt.Fprintf(w, "Probability that the product will be returned: %s\n", headerStyle.Render(res.Percent))
	if res.Returned {
		fmt.Fprintln(w, warningStyle.Render("⚠ "+res.Message))
	} else {
		fmt.Fprintln(w, successStyle.Render("✔ "+res.Message))
	}
}

func printMismatch(w io.Writer, m *predictor.SchemaMismatchError) {
	fmt.Fprintln(w, errorStyle.Render("Error: The input columns do not match the model's expected features."))
	fmt.Fprintln(w, "Expected columns:", strings.Join(m.Expected, ", "))
	fmt.Fprintln(w, "Provided columns:", strings.Join(m.Provided, ", "))
}
