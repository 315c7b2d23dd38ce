package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"orderledger/internal/domain"
	customerrepo "orderledger/internal/repository/customer"
	orderrepo "orderledger/internal/repository/order"
	sessionrepo "orderledger/internal/repository/session"
	customersvc "orderledger/internal/service/customer"
	ordersvc "orderledger/internal/service/order"
)

// DemoSessionToken is the session cookie value of the seeded dashboard user.
const DemoSessionToken = "demo-session-token"

const demoUserID = "demo-user"

type customerSeed struct {
	Name    string
	Phone   string
	Email   string
	Address string
	Orders  []orderSeed
}

type orderSeed struct {
	DaysAgo   int
	Notes     string
	Images    []string
	Status    domain.OrderStatus
	Bill      string
	Transport string
}

var demoCustomers = []customerSeed{
	{
		Name:    "Ravi Traders",
		Phone:   "+91 98450 11223",
		Email:   "ravi@traders.test",
		Address: "14 Market Road, Bengaluru",
		Orders: []orderSeed{
			{DaysAgo: 3, Notes: "20 cartons, fragile", Images: []string{"/demo/orders/ravi-1.jpg"}, Status: domain.StatusDelivered, Bill: "B100", Transport: "XYZ Transport"},
			{DaysAgo: 1, Notes: "Repeat of last week", Status: domain.StatusProcessing},
		},
	},
	{
		Name:  "Mina Stores",
		Phone: "+91 99000 44556",
		Orders: []orderSeed{
			{DaysAgo: 1, Notes: "Call before dispatch", Images: []string{"/demo/orders/mina-1.jpg", "/demo/orders/mina-2.jpg"}, Status: domain.StatusCreated},
			{DaysAgo: 0, Status: domain.StatusCreated},
		},
	},
	{
		Name:  "Kiran Hardware",
		Email: "orders@kiran.test",
	},
}

// Result summarizes what Apply wrote.
type Result struct {
	Customers int
	Orders    int
	Skipped   bool
}

// Apply creates a dashboard user with a long-lived session and, when the
// database has no customers yet, demo customers and orders spread over the
// last few days. Running it again only refreshes the session.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger, loc *time.Location, now time.Time) (Result, error) {
	if err := ensureDemoSession(ctx, sessionrepo.NewPostgres(pool), now); err != nil {
		return Result{}, fmt.Errorf("demo session: %w", err)
	}

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM customers`).Scan(&existing); err != nil {
		return Result{}, fmt.Errorf("count customers: %w", err)
	}
	if existing > 0 {
		return Result{Skipped: true}, nil
	}

	customers := customersvc.New(customerrepo.NewPostgres(pool, logger))
	orderRepo := orderrepo.NewPostgres(pool, logger)

	var res Result
	for _, cs := range demoCustomers {
		c, err := customers.Create(ctx, customersvc.Input{
			Name:        &cs.Name,
			Address:     &cs.Address,
			PhoneNumber: &cs.Phone,
			Email:       &cs.Email,
		})
		if err != nil {
			return res, fmt.Errorf("create customer %s: %w", cs.Name, err)
		}
		res.Customers++

		for _, so := range cs.Orders {
			at := now.In(loc).AddDate(0, 0, -so.DaysAgo)
			if err := createOrder(ctx, ordersvc.New(orderRepo, loc).WithClock(func() time.Time { return at }), c.ID, so); err != nil {
				return res, fmt.Errorf("create order for %s: %w", cs.Name, err)
			}
			res.Orders++
		}
	}
	return res, nil
}

func createOrder(ctx context.Context, svc *ordersvc.Service, customerID domain.ID, so orderSeed) error {
	in := ordersvc.CreateInput{CustomerID: customerID}
	if so.Notes != "" {
		in.Notes = &so.Notes
	}
	for _, url := range so.Images {
		in.Images = append(in.Images, domain.ImageInput{ImageURL: url})
	}
	o, err := svc.Create(ctx, in)
	if err != nil {
		return err
	}

	switch so.Status {
	case domain.StatusProcessing:
		status := string(domain.StatusProcessing)
		_, err = svc.Update(ctx, o.ID, ordersvc.UpdateInput{Status: &status})
	case domain.StatusDelivered:
		_, err = svc.Deliver(ctx, o.ID, ordersvc.DeliverInput{
			BillNumber:    &so.Bill,
			TransportName: &so.Transport,
			BillPhotos:    []domain.ImageInput{{ImageURL: "/demo/bills/" + so.Bill + ".jpg"}},
		})
	}
	return err
}

func ensureDemoSession(ctx context.Context, sessions sessionrepo.Repository, now time.Time) error {
	name := "Demo Owner"
	if err := sessions.UpsertUser(ctx, domain.Identity{UserID: demoUserID, Name: &name, Email: "owner@demo.test"}); err != nil {
		return err
	}
	if err := sessions.Delete(ctx, DemoSessionToken); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return sessions.Create(ctx, sessionrepo.Session{
		Token:   DemoSessionToken,
		UserID:  demoUserID,
		Expires: now.AddDate(0, 0, 30),
	})
}
