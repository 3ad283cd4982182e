package local

import "github.com/spigell/internify/internal/internship"

// catalog is the built-in listing set served without a model.
var catalog = []internship.Internship{
	{
		Company:        "Google",
		Role:           "Software Engineer Internship",
		Field:          "Software Engineering",
		SkillsRequired: []string{"Python", "Java", "Go", "gRPC", "Backend development", "Distributed systems", "APIs", "Databases"},
		Location:       "Mountain View, CA",
		Description:    "Build scalable backend services and APIs for Google's core products.",
	},
	{
		Company:        "Meta",
		Role:           "React/Full-Stack Engineering Internship",
		Field:          "Web Development",
		SkillsRequired: []string{"React", "JavaScript", "GraphQL", "CSS", "Node.js", "Frontend development"},
		Location:       "Menlo Park, CA",
		Description:    "Develop features for Facebook and Instagram using React and GraphQL.",
	},
	{
		Company:        "Microsoft",
		Role:           "Cloud Systems Internship",
		Field:          "Cloud Computing",
		SkillsRequired: []string{"C#", "Azure", "Kubernetes", ".NET", "SQL", "DevOps", "System design"},
		Location:       "Seattle, WA",
		Description:    "Work on Azure cloud infrastructure and services.",
	},
	{
		Company:        "Amazon",
		Role:           "Software Development Internship",
		Field:          "Software Engineering",
		SkillsRequired: []string{"Java", "Python", "AWS", "DynamoDB", "Lambda", "Microservices", "Backend development"},
		Location:       "Seattle, WA",
		Description:    "Build microservices and optimization tools for AWS.",
	},
	{
		Company:        "Apple",
		Role:           "iOS/Swift Development Internship",
		Field:          "Mobile Development",
		SkillsRequired: []string{"Swift", "iOS", "Xcode", "Core Data", "Mobile UI", "Performance optimization"},
		Location:       "Cupertino, CA",
		Description:    "Develop features for iOS applications and frameworks.",
	},
	{
		Company:        "Tesla",
		Role:           "Firmware Engineering Internship",
		Field:          "Embedded Systems",
		SkillsRequired: []string{"C++", "Python", "CUDA", "Linux", "Embedded systems", "Real-time systems"},
		Location:       "Palo Alto, CA",
		Description:    "Work on embedded systems and autonomous driving software.",
	},
	{
		Company:        "Netflix",
		Role:           "Machine Learning Internship",
		Field:          "Data Science",
		SkillsRequired: []string{"Python", "TensorFlow", "PyTorch", "Spark", "Machine learning", "Deep learning", "Data analysis"},
		Location:       "Los Gatos, CA",
		Description:    "Build ML models for the recommendation engine and content personalization.",
	},
	{
		Company:        "Stripe",
		Role:           "Backend Engineering Internship",
		Field:          "Software Engineering",
		SkillsRequired: []string{"Go", "Python", "PostgreSQL", "Redis", "Kubernetes", "Database design"},
		Location:       "San Francisco, CA",
		Description:    "Build payment processing infrastructure and APIs.",
	},
	{
		Company:        "Airbnb",
		Role:           "Full-Stack Engineering Internship",
		Field:          "Web Development",
		SkillsRequired: []string{"JavaScript", "React", "Python", "Django", "PostgreSQL", "APIs"},
		Location:       "San Francisco, CA",
		Description:    "Develop web and mobile features for the Airbnb platform.",
	},
	{
		Company:        "Uber",
		Role:           "Mobile Engineering Internship",
		Field:          "Mobile Development",
		SkillsRequired: []string{"Swift", "Kotlin", "React Native", "Java", "Mobile development"},
		Location:       "San Francisco, CA",
		Description:    "Develop cross-platform mobile applications and services.",
	},
	{
		Company:        "Dropbox",
		Role:           "Infrastructure Engineering Internship",
		Field:          "Systems Engineering",
		SkillsRequired: []string{"C++", "Python", "Rust", "Linux", "Distributed systems", "System design"},
		Location:       "San Francisco, CA",
		Description:    "Work on distributed systems and cloud infrastructure.",
	},
	{
		Company:        "LinkedIn",
		Role:           "Data Engineering Internship",
		Field:          "Data Engineering",
		SkillsRequired: []string{"Java", "Scala", "Kafka", "Hadoop", "Spark", "ETL", "Big data"},
		Location:       "Sunnyvale, CA",
		Description:    "Build data pipelines and analytics infrastructure.",
	},
}

// Catalog returns a copy of the built-in listings.
func Catalog() []internship.Internship {
	out := make([]internship.Internship, len(catalog))
	for idx, item := range catalog {
		out[idx] = item.Clone()
	}
	return out
}
